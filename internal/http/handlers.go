package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"consumo/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// queryInt parses an optional integer query parameter, returning def
// when absent. ok is false only on a malformed value.
func queryInt(r *http.Request, name string, def int) (value int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// mapDomainError translates domain errors to HTTP status codes.
func mapDomainError(err error) (int, string) {
	var (
		invalid *core.InvalidInputError
		badDays *core.InvalidDayCountError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.As(err, &badDays):
		return http.StatusBadRequest, badDays.Error()
	case errors.Is(err, core.ErrPeriodTooLong):
		return http.StatusBadRequest, core.ErrPeriodTooLong.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func reportCacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// handleExtract triggers an extraction for the requested period
// (defaults to the current month). With a queue publisher configured
// the request is enqueued and answered with 202; otherwise the
// extraction runs inline.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, ok := queryInt(r, "year", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year parameter")
		return
	}
	month, ok := queryInt(r, "month", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter")
		return
	}

	// Reject impossible periods before they reach the queue; a queued
	// message with a bad month would fail on every redelivery.
	if year < 0 || month < 0 || month > 12 {
		writeError(w, http.StatusBadRequest, (&core.InvalidInputError{Year: year, Month: month}).Error())
		return
	}

	// Resolve the default period up front so the queued message names a
	// fixed target and cache invalidation hits the resolved key.
	now := time.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExtractRequest(r.Context(), year, month); err != nil {
			slog.ErrorContext(r.Context(), "Extract request publish failed", "error", err, "year", year, "month", month)
			writeError(w, http.StatusInternalServerError, "failed to enqueue extraction")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	if err := s.extractor.ProcessPeriod(r.Context(), year, month); err != nil {
		slog.ErrorContext(r.Context(), "Extraction failed", "error", err, "year", year, "month", month)
		status, msg := mapDomainError(err)
		writeError(w, status, msg)
		return
	}

	s.reportCache.Delete(reportCacheKey(year, month))
	writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
}

// handleMonthlyReport serves one month with statistics and the delta
// against the previous month.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, ok := queryInt(r, "year", now.Year())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year parameter")
		return
	}
	month, ok := queryInt(r, "month", int(now.Month()))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter")
		return
	}

	key := reportCacheKey(year, month)
	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, found, err := s.reports.MonthlyReport(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly report error", "error", err, "year", year, "month", month)
		status, msg := mapDomainError(err)
		writeError(w, status, msg)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no consumption recorded for period")
		return
	}

	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(r, "year", time.Now().UTC().Year())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year parameter")
		return
	}

	months, err := s.reports.YearlyReport(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Yearly report error", "error", err, "year", year)
		status, msg := mapDomainError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Year   int                  `json:"year"`
		Months []core.MonthlyRecord `json:"months"`
	}{Year: year, Months: months})
}

func (s *Server) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", 30)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid days parameter")
		return
	}

	report, err := s.reports.PeriodForLastDays(r.Context(), days)
	if err != nil {
		slog.ErrorContext(r.Context(), "Period report error", "error", err, "days", days)
		status, msg := mapDomainError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
