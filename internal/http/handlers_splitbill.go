package http

import (
	"net/http"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/core"
	"github.com/sabilulmuttaqin/myuang/internal/split"
)

type billItemPayload struct {
	Name       string   `json:"name"`
	Category   string   `json:"category,omitempty"`
	Amount     float64  `json:"amount"`
	AssignedTo []string `json:"assigned_to"`
}

type billMemberInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsMe bool   `json:"is_me"`
}

type createSplitBillRequest struct {
	Name         string            `json:"name"`
	Date         string            `json:"date"`
	ImageURI     string            `json:"image_uri"`
	Items        []billItemPayload `json:"items"`
	Members      []billMemberInput `json:"members"`
	ApplyMyShare bool              `json:"apply_my_share"`
}

type billMemberPayload struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ShareAmount float64 `json:"share_amount"`
	IsMe        bool    `json:"is_me"`
}

type splitBillPayload struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Date          string              `json:"date"`
	TotalAmount   float64             `json:"total_amount"`
	ImageURI      string              `json:"image_uri,omitempty"`
	Members       []billMemberPayload `json:"members"`
	TransactionID int64               `json:"transaction_id,omitempty"`
}

func splitBillToPayload(b core.SplitBill) splitBillPayload {
	out := splitBillPayload{
		ID:          b.ID,
		Name:        b.Name,
		Date:        b.Date.Format(time.RFC3339),
		TotalAmount: b.TotalAmount,
		ImageURI:    b.ImageURI,
		Members:     make([]billMemberPayload, 0, len(b.Members)),
	}
	for _, m := range b.Members {
		out.Members = append(out.Members, billMemberPayload{
			ID:          m.ID,
			Name:        m.Name,
			ShareAmount: m.ShareAmount,
			IsMe:        m.IsMe,
		})
	}
	return out
}

func (s *Server) handleCreateSplitBill(w http.ResponseWriter, r *http.Request) {
	var req createSplitBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseRequestDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, use RFC3339 or YYYY-MM-DD")
		return
	}

	items := make([]core.BillLineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.BillLineItem{
			Name:       it.Name,
			Category:   it.Category,
			Amount:     it.Amount,
			AssignedTo: it.AssignedTo,
		})
	}
	members := make([]split.Member, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, split.Member{ID: m.ID, Name: m.Name, IsMe: m.IsMe})
	}

	bill, err := s.bills.BuildBill(r.Context(), req.Name, date, req.ImageURI, items, members)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := s.bills.SaveBill(r.Context(), bill); err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := splitBillToPayload(*bill)
	if req.ApplyMyShare {
		txID, err := s.bills.ApplyMyShare(r.Context(), bill)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		payload.TransactionID = txID
		s.flushSummaries()
	}

	respondJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleListSplitBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.bills.Bills(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]splitBillPayload, 0, len(bills))
	for _, b := range bills {
		payload = append(payload, splitBillToPayload(b))
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGetSplitBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.bills.Bill(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, splitBillToPayload(*bill))
}

func (s *Server) handleDeleteSplitBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.bills.DeleteBill(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
