package http

import (
	"net/http"

	"notinha/internal/core"
)

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.normalizer.SearchProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []core.NormalizedProduct{}
	}
	writeJSON(w, http.StatusOK, products)
}

// handleProductHistory answers for a canonical product ID, matching every
// spelling mapped to it.
func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := s.history.ProductHistoryByID(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleProductHistoryByName answers for a free-text name, matching by
// similarity across the user's receipts.
func (s *Server) handleProductHistoryByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name query parameter is required"})
		return
	}
	history, err := s.history.ProductHistoryByName(r.Context(), userID(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSimilarProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name query parameter is required"})
		return
	}
	names, err := s.history.SimilarNames(r.Context(), userID(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}
