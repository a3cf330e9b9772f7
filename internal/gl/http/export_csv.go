package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/meridian-erp/meridian-gl/internal/gl"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvStreamer buffers report rows and flushes them in batches so large charts
// stream without holding the whole file in memory.
type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

// writeComment emits a raw metadata line above the CSV header.
func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if _, err := s.buf.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return nil
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (h *Handler) handleTrialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadTrialBalance(w, r)
	if !ok {
		return
	}
	filename := fmt.Sprintf("trial_balance_%s.csv", exportStamp(res.Filters))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if err := writeTrialBalanceCSV(w, res); err != nil && h.logger != nil {
		h.logger.Error("stream trial balance csv", slog.Any("error", err))
	}
}

func exportStamp(f gl.TrialBalanceFilters) string {
	if f.To != nil {
		return f.To.Format(dateLayout)
	}
	return "to-date"
}

// writeTrialBalanceCSV renders the rows the JSON endpoint would return, one
// line per account, footer rows last.
func writeTrialBalanceCSV(w io.Writer, res gl.TrialBalanceResult) error {
	streamer := newCSVStreamer(w)
	if err := writeExportMetadata(streamer, res.Filters); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Account Code", "Account Name", "Type", "Level", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	for _, row := range res.Report.Rows {
		if err := streamer.writeRow([]string{
			row.Code,
			row.Name,
			row.Type,
			strconv.Itoa(row.Level),
			row.Debit.StringFixed(2),
			row.Credit.StringFixed(2),
			row.Balance.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"", "", "", "", "", "", ""}); err != nil {
		return err
	}
	totals := res.Report.Totals
	if err := streamer.writeRow([]string{"TOTAL", "", "", "", totals.Debit.StringFixed(2), totals.Credit.StringFixed(2), totals.Balance.StringFixed(2)}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"BALANCED", "", "", "", "", "", strconv.FormatBool(totals.Balanced)}); err != nil {
		return err
	}
	return streamer.flush()
}

func writeExportMetadata(streamer *csvStreamer, f gl.TrialBalanceFilters) error {
	if err := streamer.writeComment("# Report: Trial Balance"); err != nil {
		return err
	}
	from, to := "inception", "latest"
	if f.From != nil {
		from = f.From.Format(dateLayout)
	}
	if f.To != nil {
		to = f.To.Format(dateLayout)
	}
	codes := "all"
	if f.CodeFrom != "" || f.CodeTo != "" {
		codes = f.CodeFrom + ".." + f.CodeTo
	}
	return streamer.writeComment(fmt.Sprintf("# Window: %s..%s | Codes: %s | Level: %d | Hierarchy: %t | Zero rows: %t",
		from, to, codes, f.Level, f.Hierarchy, f.IncludeZero))
}
