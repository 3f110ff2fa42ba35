package http

import (
	"encoding/json"
	"net/http"

	"notinha/internal/core"
)

type addShoppingRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type toggleShoppingRequest struct {
	Completed bool `json:"completed"`
}

func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request) {
	items, err := s.shopping.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []core.ShoppingListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddShopping(w http.ResponseWriter, r *http.Request) {
	var req addShoppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid shopping item payload"})
		return
	}

	item, err := s.shopping.Add(r.Context(), userID(r), req.Name, req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleToggleShopping(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req toggleShoppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid toggle payload"})
		return
	}

	if err := s.shopping.SetCompleted(r.Context(), id, req.Completed); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteShopping(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.shopping.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
