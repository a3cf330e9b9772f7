// Package http wires the ledger reporting endpoints: trial balance, balance
// sheet, account drill-down, and the CSV export.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-gl/internal/gl"
	"github.com/meridian-erp/meridian-gl/internal/platform/httpx"
	"github.com/meridian-erp/meridian-gl/internal/tenant"
)

// ReportService defines the reporting contract used by the handler.
type ReportService interface {
	TrialBalance(ctx context.Context, companyID uuid.UUID, f gl.TrialBalanceFilters) (gl.TrialBalanceResult, error)
	BalanceSheet(ctx context.Context, companyID uuid.UUID, f gl.BalanceSheetFilters) (gl.BalanceSheetResult, error)
	AccountStatement(ctx context.Context, companyID uuid.UUID, accountID int64, f gl.StatementFilters) (gl.AccountStatement, error)
}

// Handler serves the ledger reporting endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the reporting handler. The export limiter keys on the
// company scope, falling back to client IP for unscoped traffic.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)
	return &Handler{logger: logger, service: service, rateLimit: limiter}
}

func rateLimitKey(r *http.Request) (string, error) {
	if companyID, ok := tenant.FromContext(r.Context()); ok {
		return "company:" + companyID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

// MountRoutes registers the reporting endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.handleTrialBalance)
	r.Get("/trial-balance/summary", h.handleTrialBalanceSummary)
	r.Get("/trial-balance/details/{account_id}", h.handleAccountDetails)
	r.Get("/balance-sheet", h.handleBalanceSheet)
	r.Get("/balance-sheet/summary", h.handleBalanceSheetSummary)
	r.Group(func(gr chi.Router) {
		gr.Use(h.rateLimit)
		gr.Get("/trial-balance/export.csv", h.handleTrialBalanceCSV)
	})
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadTrialBalance(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewTrialBalanceVM(res))
}

func (h *Handler) handleTrialBalanceSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadTrialBalance(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewTrialBalanceSummaryVM(res))
}

func (h *Handler) handleAccountDetails(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.company(w, r)
	if !ok {
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", map[string]string{"account_id": "must be a positive integer"})
		return
	}
	filters, fieldErrors := parseStatementFilters(r)
	if len(fieldErrors) > 0 {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fieldErrors)
		return
	}
	st, err := h.service.AccountStatement(r.Context(), companyID, accountID, filters)
	if err != nil {
		h.respondError(w, "build account statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAccountStatementVM(st, filters))
}

// loadTrialBalance is the shared fetch path of the full, summary, and CSV
// variants. A false return means a response was already written.
func (h *Handler) loadTrialBalance(w http.ResponseWriter, r *http.Request) (gl.TrialBalanceResult, bool) {
	companyID, ok := h.company(w, r)
	if !ok {
		return gl.TrialBalanceResult{}, false
	}
	filters, fieldErrors := parseTrialBalanceFilters(r)
	if len(fieldErrors) > 0 {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fieldErrors)
		return gl.TrialBalanceResult{}, false
	}
	res, err := h.service.TrialBalance(r.Context(), companyID, filters)
	if err != nil {
		h.respondError(w, "build trial balance", err)
		return gl.TrialBalanceResult{}, false
	}
	return res, true
}

func (h *Handler) company(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	companyID, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing company scope")
		return uuid.Nil, false
	}
	return companyID, true
}

// respondError maps service failures onto problem documents. Store errors are
// logged with full detail and answered with a generic body.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, gl.ErrInvalidFilter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, gl.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "account not found for company")
	case errors.Is(err, gl.ErrUnknownClassification):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Data Integrity", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseTrialBalanceFilters(r *http.Request) (gl.TrialBalanceFilters, map[string]string) {
	q := r.URL.Query()
	fieldErrors := make(map[string]string)
	f := gl.TrialBalanceFilters{
		From:     parseDateParam(q.Get("from_date"), "from_date", fieldErrors),
		To:       parseDateParam(q.Get("to_date"), "to_date", fieldErrors),
		CodeFrom: strings.TrimSpace(q.Get("account_code_from")),
		CodeTo:   strings.TrimSpace(q.Get("account_code_to")),
	}
	if raw := strings.TrimSpace(q.Get("level")); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			fieldErrors["level"] = "must be a non-negative integer"
		} else {
			f.Level = level
		}
	}
	f.IncludeZero = parseBoolParam(q.Get("include_zero_balance"), "include_zero_balance", fieldErrors)
	f.Hierarchy = parseBoolParam(q.Get("hierarchy"), "hierarchy", fieldErrors)
	return f, fieldErrors
}

func parseStatementFilters(r *http.Request) (gl.StatementFilters, map[string]string) {
	q := r.URL.Query()
	fieldErrors := make(map[string]string)
	return gl.StatementFilters{
		From: parseDateParam(q.Get("from_date"), "from_date", fieldErrors),
		To:   parseDateParam(q.Get("to_date"), "to_date", fieldErrors),
	}, fieldErrors
}

func parseDateParam(raw, field string, fieldErrors map[string]string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		fieldErrors[field] = "must be a YYYY-MM-DD date"
		return nil
	}
	return &parsed
}

func parseBoolParam(raw, field string, fieldErrors map[string]string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		fieldErrors[field] = "must be a boolean"
		return false
	}
	return value
}
