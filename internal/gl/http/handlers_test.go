package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-gl/internal/gl"
	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
	"github.com/meridian-erp/meridian-gl/internal/platform/httpx"
	"github.com/meridian-erp/meridian-gl/internal/tenant"
)

type stubService struct {
	tb    gl.TrialBalanceResult
	tbErr error
	bs    gl.BalanceSheetResult
	bsErr error
	st    gl.AccountStatement
	stErr error

	tbCalls       int
	bsCalls       int
	stCalls       int
	lastTBFilters gl.TrialBalanceFilters
	lastBSFilters gl.BalanceSheetFilters
	lastAccountID int64
}

func (s *stubService) TrialBalance(ctx context.Context, companyID uuid.UUID, f gl.TrialBalanceFilters) (gl.TrialBalanceResult, error) {
	s.tbCalls++
	s.lastTBFilters = f
	if s.tbErr != nil {
		return gl.TrialBalanceResult{}, s.tbErr
	}
	res := s.tb
	res.Filters = f
	return res, nil
}

func (s *stubService) BalanceSheet(ctx context.Context, companyID uuid.UUID, f gl.BalanceSheetFilters) (gl.BalanceSheetResult, error) {
	s.bsCalls++
	s.lastBSFilters = f
	if s.bsErr != nil {
		return gl.BalanceSheetResult{}, s.bsErr
	}
	res := s.bs
	res.Filters = f
	return res, nil
}

func (s *stubService) AccountStatement(ctx context.Context, companyID uuid.UUID, accountID int64, f gl.StatementFilters) (gl.AccountStatement, error) {
	s.stCalls++
	s.lastAccountID = accountID
	if s.stErr != nil {
		return gl.AccountStatement{}, s.stErr
	}
	return s.st, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func datePtr(v string) *time.Time {
	parsed, _ := time.Parse(dateLayout, v)
	return &parsed
}

func newTestRouter(svc ReportService) chi.Router {
	r := chi.NewRouter()
	NewHandler(newTestLogger(), svc).MountRoutes(r)
	return r
}

func scopedRequest(companyID uuid.UUID, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(tenant.WithCompany(req.Context(), companyID))
}

func sampleTrialBalance() gl.TrialBalanceResult {
	return gl.TrialBalanceResult{
		Report: reports.TrialBalance{
			Rows: []reports.Row{
				{AccountID: 2, Code: "1100", Name: "Cash", Type: "ASSET", Level: 2, Debit: decimal.NewFromInt(1000), Credit: decimal.NewFromInt(300), Balance: decimal.NewFromInt(700)},
				{AccountID: 7, Code: "4000", Name: "Sales Revenue", Type: "REVENUE", Level: 1, Credit: decimal.NewFromInt(500), Balance: decimal.NewFromInt(500)},
			},
			Totals: reports.TrialBalanceTotals{
				Debit:    decimal.NewFromInt(1300),
				Credit:   decimal.NewFromInt(1300),
				Balance:  decimal.Zero,
				Balanced: true,
			},
		},
	}
}

func sampleBalanceSheet() gl.BalanceSheetResult {
	accID := int64(6)
	snap := gl.BalanceSheetSnapshot{
		AsOf: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Assets: reports.BalanceSheetSection{
			Rows:  []reports.Row{{AccountID: 2, Code: "1100", Name: "Cash", Type: "ASSET", Level: 2, Debit: decimal.NewFromInt(1000), Credit: decimal.NewFromInt(300), Balance: decimal.NewFromInt(700)}},
			Total: decimal.NewFromInt(700),
		},
		Liabilities: reports.BalanceSheetSection{
			Rows:  []reports.Row{{AccountID: 4, Code: "2100", Name: "Bank Loan", Type: "LIABILITY", Level: 2, Credit: decimal.NewFromInt(200), Balance: decimal.NewFromInt(200)}},
			Total: decimal.NewFromInt(200),
		},
		Equity: reports.BalanceSheetSection{
			Rows:  []reports.Row{{AccountID: 6, Code: "3200", Name: "Retained Earnings", Type: "EQUITY", Level: 2, Credit: decimal.NewFromInt(300), Balance: decimal.NewFromInt(300)}},
			Total: decimal.NewFromInt(300),
		},
		Retained: gl.RetainedEarnings{AccountID: &accID, Code: "3200", Name: "Retained Earnings", CurrentEarnings: decimal.NewFromInt(200)},
	}
	snap.Totals = reports.SummarizeBalanceSheet(snap.Assets, snap.Liabilities, snap.Equity, snap.Retained.CurrentEarnings)
	return gl.BalanceSheetResult{Current: snap}
}

func TestTrialBalanceEndpoint(t *testing.T) {
	svc := &stubService{tb: sampleTrialBalance()}
	router := newTestRouter(svc)

	req := scopedRequest(uuid.New(), "/trial-balance?from_date=2025-01-01&to_date=2025-03-31&hierarchy=true")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store response, got %q", got)
	}

	var vm TrialBalanceVM
	if err := json.Unmarshal(rr.Body.Bytes(), &vm); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(vm.Rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(vm.Rows))
	}
	if vm.Rows[0].Debit != "1000.00" || vm.Rows[0].Balance != "700.00" {
		t.Fatalf("unexpected cash row %+v", vm.Rows[0])
	}
	if !vm.Totals.IsBalanced || vm.Totals.TotalDebit != "1300.00" {
		t.Fatalf("unexpected totals %+v", vm.Totals)
	}
	if vm.Filters.FromDate != "2025-01-01" || !vm.Filters.Hierarchy {
		t.Fatalf("filters not echoed: %+v", vm.Filters)
	}

	if svc.tbCalls != 1 {
		t.Fatalf("expected one service call got %d", svc.tbCalls)
	}
	if svc.lastTBFilters.From == nil || svc.lastTBFilters.From.Format(dateLayout) != "2025-01-01" {
		t.Fatalf("from_date not parsed: %+v", svc.lastTBFilters)
	}
	if !svc.lastTBFilters.Hierarchy || svc.lastTBFilters.IncludeZero {
		t.Fatalf("flags not parsed: %+v", svc.lastTBFilters)
	}
}

func TestTrialBalanceSummaryEndpoint(t *testing.T) {
	svc := &stubService{tb: sampleTrialBalance()}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance/summary"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := payload["rows"]; ok {
		t.Fatalf("summary must not carry rows")
	}
	var totals TrialBalanceTotalsVM
	if err := json.Unmarshal(payload["totals"], &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals.TotalCredit != "1300.00" || !totals.IsBalanced {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestTrialBalanceRejectsBadDate(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance?from_date=2025-13-99"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Errors["from_date"] == "" {
		t.Fatalf("expected from_date field error, got %+v", problem)
	}
	if svc.tbCalls != 0 {
		t.Fatalf("expected no service call on invalid input")
	}
}

func TestTrialBalanceRequiresCompanyScope(t *testing.T) {
	svc := &stubService{tb: sampleTrialBalance()}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trial-balance", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if svc.tbCalls != 0 {
		t.Fatalf("expected no service call without company scope")
	}
}

func TestTrialBalanceMapsServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"invalid filter": {gl.ErrInvalidFilter, http.StatusBadRequest},
		"integrity":      {gl.ErrUnknownClassification, http.StatusUnprocessableEntity},
		"store failure":  {errors.New("connection refused"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubService{tbErr: tc.err}
			router := newTestRouter(svc)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance"))

			if rr.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rr.Code)
			}
			var problem httpx.ProblemDetail
			if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if tc.status == http.StatusInternalServerError && problem.Detail != "" {
				t.Fatalf("store errors must not leak detail, got %q", problem.Detail)
			}
		})
	}
}

func TestAccountDetailsEndpoint(t *testing.T) {
	svc := &stubService{st: gl.AccountStatement{
		Account: gl.Account{ID: 2, Code: "1100", Name: "Cash", Type: gl.AccountTypeAsset, Level: 2},
		Lines: []gl.DetailLine{
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Reference: "OB-7", Origin: gl.OriginOpening, Debit: decimal.NewFromInt(500), Running: decimal.NewFromInt(500)},
			{Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), Reference: "JE-2025-00002", Origin: gl.OriginJournal, Credit: decimal.NewFromInt(300), Running: decimal.NewFromInt(200)},
		},
		Debit:   decimal.NewFromInt(500),
		Credit:  decimal.NewFromInt(300),
		Closing: decimal.NewFromInt(200),
	}}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance/details/2?from_date=2025-01-01"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	var vm AccountStatementVM
	if err := json.Unmarshal(rr.Body.Bytes(), &vm); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if vm.Account.AccountCode != "1100" {
		t.Fatalf("unexpected account %+v", vm.Account)
	}
	if len(vm.Lines) != 2 || vm.Lines[1].RunningBalance != "200.00" {
		t.Fatalf("unexpected lines %+v", vm.Lines)
	}
	if vm.Lines[0].Origin != "OPENING" || vm.Lines[1].Reference != "JE-2025-00002" {
		t.Fatalf("line identity lost: %+v", vm.Lines)
	}
	if vm.ClosingBalance != "200.00" {
		t.Fatalf("unexpected closing %s", vm.ClosingBalance)
	}
	if svc.lastAccountID != 2 {
		t.Fatalf("account id not forwarded, got %d", svc.lastAccountID)
	}
}

func TestAccountDetailsRejectsBadID(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance/details/abc"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if svc.stCalls != 0 {
		t.Fatalf("expected no service call for malformed id")
	}
}

func TestAccountDetailsNotFound(t *testing.T) {
	svc := &stubService{stErr: gl.ErrAccountNotFound}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance/details/99"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestBalanceSheetEndpoint(t *testing.T) {
	svc := &stubService{bs: sampleBalanceSheet()}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/balance-sheet?as_of_date=2025-03-31"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	var vm BalanceSheetVM
	if err := json.Unmarshal(rr.Body.Bytes(), &vm); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if vm.Current.AsOfDate != "2025-03-31" {
		t.Fatalf("unexpected as_of %s", vm.Current.AsOfDate)
	}
	if vm.Current.Totals.TotalAssets != "700.00" || vm.Current.Totals.TotalEquity != "500.00" {
		t.Fatalf("unexpected totals %+v", vm.Current.Totals)
	}
	if !vm.Current.Totals.IsBalanced || vm.Current.Totals.BalanceVariance != "0.00" {
		t.Fatalf("expected balanced sheet, got %+v", vm.Current.Totals)
	}
	if vm.Current.RetainedEarnings.AccountCode != "3200" || vm.Current.RetainedEarnings.CurrentEarnings != "200.00" {
		t.Fatalf("unexpected retained earnings %+v", vm.Current.RetainedEarnings)
	}
	if vm.Comparison != nil {
		t.Fatalf("expected no comparison block")
	}
	if svc.lastBSFilters.AsOf.Format(dateLayout) != "2025-03-31" {
		t.Fatalf("as_of_date not parsed: %+v", svc.lastBSFilters)
	}
}

func TestBalanceSheetRequiresAsOf(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/balance-sheet"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Errors["as_of_date"] == "" {
		t.Fatalf("expected as_of_date field error, got %+v", problem)
	}
	if svc.bsCalls != 0 {
		t.Fatalf("expected no service call without as_of_date")
	}
}

func TestBalanceSheetSummaryComparison(t *testing.T) {
	res := sampleBalanceSheet()
	prior := res.Current
	prior.AsOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	res.Comparison = &prior
	svc := &stubService{bs: res}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/balance-sheet/summary?as_of_date=2025-03-31&comparison_date=2024-12-31"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var vm BalanceSheetSummaryVM
	if err := json.Unmarshal(rr.Body.Bytes(), &vm); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if vm.Comparison == nil || vm.Comparison.AsOfDate != "2024-12-31" {
		t.Fatalf("expected comparison totals, got %+v", vm.Comparison)
	}
	if vm.Comparison.Totals.TotalAssets != "700.00" {
		t.Fatalf("unexpected comparison totals %+v", vm.Comparison.Totals)
	}
}
