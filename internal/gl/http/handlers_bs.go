package http

import (
	"net/http"
	"strings"

	"github.com/meridian-erp/meridian-gl/internal/gl"
	"github.com/meridian-erp/meridian-gl/internal/platform/httpx"
)

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadBalanceSheet(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewBalanceSheetVM(res))
}

func (h *Handler) handleBalanceSheetSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadBalanceSheet(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewBalanceSheetSummaryVM(res))
}

func (h *Handler) loadBalanceSheet(w http.ResponseWriter, r *http.Request) (gl.BalanceSheetResult, bool) {
	companyID, ok := h.company(w, r)
	if !ok {
		return gl.BalanceSheetResult{}, false
	}
	filters, fieldErrors := parseBalanceSheetFilters(r)
	if len(fieldErrors) > 0 {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fieldErrors)
		return gl.BalanceSheetResult{}, false
	}
	res, err := h.service.BalanceSheet(r.Context(), companyID, filters)
	if err != nil {
		h.respondError(w, "build balance sheet", err)
		return gl.BalanceSheetResult{}, false
	}
	return res, true
}

// parseBalanceSheetFilters rejects a missing as_of_date before any query
// runs; the comparison date stays optional.
func parseBalanceSheetFilters(r *http.Request) (gl.BalanceSheetFilters, map[string]string) {
	q := r.URL.Query()
	fieldErrors := make(map[string]string)
	var f gl.BalanceSheetFilters
	if raw := strings.TrimSpace(q.Get("as_of_date")); raw == "" {
		fieldErrors["as_of_date"] = "required"
	} else if asOf := parseDateParam(raw, "as_of_date", fieldErrors); asOf != nil {
		f.AsOf = *asOf
	}
	f.Comparison = parseDateParam(q.Get("comparison_date"), "comparison_date", fieldErrors)
	f.IncludeZero = parseBoolParam(q.Get("include_zero_balance"), "include_zero_balance", fieldErrors)
	f.Hierarchy = parseBoolParam(q.Get("hierarchy"), "hierarchy", fieldErrors)
	return f, fieldErrors
}
