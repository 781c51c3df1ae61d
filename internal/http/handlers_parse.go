package http

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

type parseTextRequest struct {
	Text string `json:"text"`
}

type parseReceiptRequest struct {
	Image      string `json:"image"`
	MIMEType   string `json:"mime_type"`
	SplitItems bool   `json:"split_items"`
}

type parsedExpensePayload struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

func parsedToPayload(p core.ParsedExpense) parsedExpensePayload {
	return parsedExpensePayload{Name: p.Name, Category: p.Category, Amount: p.Amount}
}

// categoryNames loads the category list for prompt grounding.
func (s *Server) categoryNames(r *http.Request) ([]string, error) {
	cats, err := s.expenses.Categories(r.Context())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		respondError(w, http.StatusServiceUnavailable, "parsing is not configured")
		return
	}

	var req parseTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}

	available, err := s.categoryNames(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	parsed, err := s.parser.ParseFreeText(r.Context(), req.Text, available)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if parsed == nil {
		// The text did not describe an expense. Not an error.
		respondJSON(w, http.StatusOK, map[string]any{"expense": nil})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"expense": parsedToPayload(*parsed)})
}

func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		respondError(w, http.StatusServiceUnavailable, "parsing is not configured")
		return
	}

	var req parseReceiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusUnprocessableEntity, "image is required")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "image must be base64-encoded")
		return
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	available, err := s.categoryNames(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	parsed, err := s.parser.ParseReceiptImage(r.Context(), image, mimeType, available, req.SplitItems)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]parsedExpensePayload, 0, len(parsed))
	for _, p := range parsed {
		payload = append(payload, parsedToPayload(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": payload})
}
