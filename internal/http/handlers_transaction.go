package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

type createTransactionRequest struct {
	CategoryID int64   `json:"category_id"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Note       string  `json:"note"`
	ImageURI   string  `json:"image_uri"`
}

type transactionPayload struct {
	ID            int64   `json:"id"`
	CategoryID    int64   `json:"category_id"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
	Note          string  `json:"note"`
	ImageURI      string  `json:"image_uri,omitempty"`
	CategoryName  string  `json:"category_name,omitempty"`
	CategoryIcon  string  `json:"category_icon,omitempty"`
	CategoryColor string  `json:"category_color,omitempty"`
}

func transactionToPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:            t.ID,
		CategoryID:    t.CategoryID,
		Amount:        t.Amount,
		Date:          t.Date.Format(time.RFC3339),
		Note:          t.Note,
		ImageURI:      t.ImageURI,
		CategoryName:  t.CategoryName,
		CategoryIcon:  t.CategoryIcon,
		CategoryColor: t.CategoryColor,
	}
}

// parseRequestDate accepts RFC3339 or a plain calendar day, defaulting to
// now when the field is empty.
func parseRequestDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseRequestDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, use RFC3339 or YYYY-MM-DD")
		return
	}

	id, err := s.expenses.CreateExpense(r.Context(), core.Transaction{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Date:       date,
		Note:       req.Note,
		ImageURI:   req.ImageURI,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.flushSummaries()
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := s.recentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	txs, err := s.expenses.RecentTransactions(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]transactionPayload, 0, len(txs))
	for _, t := range txs {
		payload = append(payload, transactionToPayload(t))
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.flushSummaries()
	respondJSON(w, http.StatusNoContent, nil)
}
