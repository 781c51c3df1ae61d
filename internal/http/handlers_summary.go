package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/core"
	"github.com/sabilulmuttaqin/myuang/internal/log"
)

type breakdownPayload struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Percentage int     `json:"percentage"`
}

type summaryPayload struct {
	Total     float64            `json:"total"`
	Count     int                `json:"count"`
	Breakdown []breakdownPayload `json:"breakdown"`
}

func summaryToPayload(s core.RangeSummary) summaryPayload {
	out := summaryPayload{
		Total:     s.Total,
		Count:     s.Count,
		Breakdown: make([]breakdownPayload, 0, len(s.Breakdown)),
	}
	for _, b := range s.Breakdown {
		out.Breakdown = append(out.Breakdown, breakdownPayload{
			CategoryID: b.CategoryID,
			Name:       b.Name,
			Total:      b.Total,
			Percentage: b.Percentage,
		})
	}
	return out
}

// parseMonthParams extracts year and month from query parameters, using
// the current date as defaults.
func parseMonthParams(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseMonthParams(r)
	key := "month:" + strconv.Itoa(year) + "-" + strconv.Itoa(month)

	if cached, found := s.summaryCache.Get(key); found {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", "key", key)
		respondJSON(w, http.StatusOK, summaryToPayload(cached))
		return
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	summary, err := s.expenses.MonthSummary(r.Context(), ref)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	respondJSON(w, http.StatusOK, summaryToPayload(summary))
}

func (s *Server) handleWeekTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.expenses.WeekTotal(r.Context(), time.Now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"total": total})
}

func (s *Server) handleRangeSummary(w http.ResponseWriter, r *http.Request) {
	startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
	endRaw := strings.TrimSpace(r.URL.Query().Get("end"))
	if startRaw == "" || endRaw == "" {
		respondError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid start date, use YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid end date, use YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusUnprocessableEntity, "end date precedes start date")
		return
	}

	key := "range:" + startRaw + ":" + endRaw
	if cached, found := s.summaryCache.Get(key); found {
		respondJSON(w, http.StatusOK, summaryToPayload(cached))
		return
	}

	summary, err := s.expenses.RangeSummary(r.Context(), start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	respondJSON(w, http.StatusOK, summaryToPayload(summary))
}
