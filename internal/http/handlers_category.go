package http

import (
	"net/http"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

type categoryPayload struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	BudgetLimit float64 `json:"budget_limit,omitempty"`
}

func categoryToPayload(c core.Category) categoryPayload {
	return categoryPayload{
		ID:          c.ID,
		Name:        c.Name,
		Icon:        c.Icon,
		Color:       c.Color,
		BudgetLimit: c.BudgetLimit,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.expenses.Categories(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]categoryPayload, 0, len(cats))
	for _, c := range cats {
		payload = append(payload, categoryToPayload(c))
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryPayload
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.expenses.CreateCategory(r.Context(), core.Category{
		Name:        req.Name,
		Icon:        req.Icon,
		Color:       req.Color,
		BudgetLimit: req.BudgetLimit,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	req.ID = id
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req categoryPayload
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.expenses.UpdateCategory(r.Context(), id, req.Name, req.Icon, req.Color); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.flushSummaries()
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Deleting a category cascades into its transactions, so every
	// derived summary is stale afterwards.
	if err := s.expenses.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.flushSummaries()
	respondJSON(w, http.StatusNoContent, nil)
}
