package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/log"
)

// handleUploadReceipt accepts a receipt photo, either as a raw image body or
// as a multipart form with an "image" file field, and runs the full ingestion
// pipeline before answering.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	image, mimeType, err := readUpload(r, s.maxUploadBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	if !strings.HasPrefix(mimeType, "image/") {
		writeJSON(w, http.StatusUnsupportedMediaType,
			errorResponse{Error: "only image uploads are accepted"})
		return
	}

	rec, err := s.ingest.Ingest(r.Context(), image, mimeType, userID(r))
	if err != nil {
		s.logger.WarnContext(r.Context(), "Receipt upload failed",
			log.FieldOperation, log.OpUpload,
			log.FieldError, err)
		writeError(w, err)
		return
	}

	s.dashCache.Purge()
	writeJSON(w, http.StatusCreated, rec)
}

// readUpload pulls the image bytes and content type out of the request. Size
// is bounded here so an oversized body never reaches memory in full; the
// pipeline re-checks the limit on whatever does.
func readUpload(r *http.Request, maxBytes int64) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, "", fmt.Errorf("%w: %v", core.ErrPrecondition, err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("%w: missing image field", core.ErrPrecondition)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		return data, header.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, contentType, nil
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.ingest.Receipts(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []core.Receipt{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.ingest.Receipt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var rec core.Receipt
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid receipt payload"})
		return
	}
	rec.ID = id
	rec.UserID = userID(r)

	updated, err := s.ingest.UpdateReceipt(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}

	s.dashCache.Purge()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ingest.DeleteReceipt(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.dashCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReceiptImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	mimeType, data, err := s.images.GetImageByReceipt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", core.ErrNotFound)
	}
	return id, nil
}
