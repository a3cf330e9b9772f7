package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-gl/internal/gl"
)

// LedgerVerifier describes the reporting behaviour the verify command needs.
type LedgerVerifier interface {
	TrialBalance(ctx context.Context, companyID uuid.UUID, f gl.TrialBalanceFilters) (gl.TrialBalanceResult, error)
}

// VerifyCLI offers operational helpers to check ledger footing per company.
type VerifyCLI struct {
	service LedgerVerifier
}

// NewVerifyCLI constructs a new helper instance.
func NewVerifyCLI(service LedgerVerifier) (*VerifyCLI, error) {
	if service == nil {
		return nil, errors.New("verify cli: service is required")
	}
	return &VerifyCLI{service: service}, nil
}

// VerifyOptions defines available flags for the verify command.
type VerifyOptions struct {
	CompanyID  string
	AsOf       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// VerifySummary describes the JSON response for verify.
type VerifySummary struct {
	CompanyID string `json:"company_id"`
	AsOf      string `json:"as_of_date,omitempty"`
	Accounts  int    `json:"accounts"`
	Debit     string `json:"total_debit"`
	Credit    string `json:"total_credit"`
	Balance   string `json:"balance"`
	Balanced  bool   `json:"is_balanced"`
}

// VerifyCommand recomputes the trial balance for a company and reports
// whether the ledger foots. Exit code 10 signals an out-of-balance ledger.
func (c *VerifyCLI) VerifyCommand(ctx context.Context, opts VerifyOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	companyID, err := uuid.Parse(strings.TrimSpace(opts.CompanyID))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "verify: invalid --company %q (expected a UUID)\n", opts.CompanyID)
		return 1
	}
	var filters gl.TrialBalanceFilters
	asOfLabel := ""
	if strings.TrimSpace(opts.AsOf) != "" {
		asOf, err := time.Parse("2006-01-02", strings.TrimSpace(opts.AsOf))
		if err != nil {
			fmt.Fprintf(opts.Stderr, "verify: invalid --as-of %q (expected YYYY-MM-DD)\n", opts.AsOf)
			return 1
		}
		filters.To = &asOf
		asOfLabel = asOf.Format("2006-01-02")
	}
	res, err := c.service.TrialBalance(ctx, companyID, filters)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "verify: %v\n", err)
		return 1
	}
	summary := VerifySummary{
		CompanyID: companyID.String(),
		AsOf:      asOfLabel,
		Accounts:  len(res.Report.Rows),
		Debit:     res.Report.Totals.Debit.StringFixed(2),
		Credit:    res.Report.Totals.Credit.StringFixed(2),
		Balance:   res.Report.Totals.Balance.StringFixed(2),
		Balanced:  res.Report.Totals.Balanced,
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			fmt.Fprintf(opts.Stderr, "verify: encode json: %v\n", err)
			return 1
		}
	} else {
		renderVerifyHuman(opts.Stdout, summary)
	}
	if !summary.Balanced {
		return 10
	}
	return 0
}

func renderVerifyHuman(out io.Writer, summary VerifySummary) {
	scope := "through latest postings"
	if summary.AsOf != "" {
		scope = "as of " + summary.AsOf
	}
	fmt.Fprintf(out, "Ledger verification for %s %s\n", summary.CompanyID, scope)
	fmt.Fprintf(out, "Accounts: %d\n", summary.Accounts)
	fmt.Fprintf(out, "Debits %s / Credits %s (difference %s)\n", summary.Debit, summary.Credit, summary.Balance)
	if summary.Balanced {
		fmt.Fprintln(out, "Ledger is in balance.")
	} else {
		fmt.Fprintln(out, "LEDGER OUT OF BALANCE.")
	}
}
