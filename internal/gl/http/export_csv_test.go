package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-gl/internal/gl"
)

func TestCSVStreamerFlushInterval(t *testing.T) {
	var buf bytes.Buffer
	streamer := newCSVStreamer(&buf)
	for i := 0; i < csvFlushEvery; i++ {
		if err := streamer.writeRow([]string{"row"}); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	if streamer.pendingLines != 0 {
		t.Fatalf("expected pending lines reset to 0, got %d", streamer.pendingLines)
	}
	if err := streamer.writeRow([]string{"next"}); err != nil {
		t.Fatalf("write row: %v", err)
	}
	if streamer.pendingLines != 1 {
		t.Fatalf("expected pending lines 1, got %d", streamer.pendingLines)
	}
	if err := streamer.flush(); err != nil {
		t.Fatalf("flush streamer: %v", err)
	}
}

func TestWriteTrialBalanceCSV(t *testing.T) {
	res := sampleTrialBalance()
	res.Filters = gl.TrialBalanceFilters{From: datePtr("2025-01-01"), To: datePtr("2025-03-31")}

	var buf bytes.Buffer
	if err := writeTrialBalanceCSV(&buf, res); err != nil {
		t.Fatalf("writeTrialBalanceCSV: %v", err)
	}
	content := buf.String()
	if !strings.Contains(content, "\r\n") {
		t.Fatalf("expected CRLF line endings")
	}
	lines := strings.Split(strings.TrimSuffix(content, "\r\n"), "\r\n")
	if want := "# Report: Trial Balance"; lines[0] != want {
		t.Fatalf("unexpected metadata line 1: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "# Window: 2025-01-01..2025-03-31") {
		t.Fatalf("unexpected metadata line 2: %q", lines[1])
	}
	if want := "Account Code,Account Name,Type,Level,Debit,Credit,Balance"; lines[2] != want {
		t.Fatalf("unexpected header: %q", lines[2])
	}
	if want := "1100,Cash,ASSET,2,1000.00,300.00,700.00"; lines[3] != want {
		t.Fatalf("unexpected first row: %q", lines[3])
	}
	if want := "TOTAL,,,,1300.00,1300.00,0.00"; !strings.Contains(content, want) {
		t.Fatalf("expected totals row containing %q", want)
	}
	if want := "BALANCED,,,,,,true"; !strings.Contains(content, want) {
		t.Fatalf("expected balanced flag row containing %q", want)
	}
}

func TestTrialBalanceCSVEndpoint(t *testing.T) {
	svc := &stubService{tb: sampleTrialBalance()}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(uuid.New(), "/trial-balance/export.csv?to_date=2025-03-31"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "trial_balance_2025-03-31.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(rr.Body.String(), "# Report: Trial Balance") {
		t.Fatalf("expected metadata in body")
	}
}

func TestTrialBalanceCSVRateLimited(t *testing.T) {
	svc := &stubService{tb: sampleTrialBalance()}
	router := newTestRouter(svc)
	companyID := uuid.New()

	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, scopedRequest(companyID, "/trial-balance/export.csv"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: unexpected status %d", i+1, rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(companyID, "/trial-balance/export.csv"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rr.Code)
	}
	// JSON endpoints bypass the export limiter.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(companyID, "/trial-balance"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected JSON endpoint unaffected, got %d", rr.Code)
	}
}
