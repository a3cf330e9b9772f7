package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-gl/internal/gl"
	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
)

const dateLayout = "2006-01-02"

func money(v decimal.Decimal) string { return v.StringFixed(2) }

func dateString(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(dateLayout)
}

// RowVM is one report line. Amounts are fixed two-decimal strings so clients
// never round them through floats.
type RowVM struct {
	AccountID   int64  `json:"account_id"`
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	AccountType string `json:"account_type"`
	Level       int    `json:"level"`
	IsHeader    bool   `json:"is_header"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

func toRowVMs(rows []reports.Row) []RowVM {
	out := make([]RowVM, len(rows))
	for i, row := range rows {
		out[i] = RowVM{
			AccountID:   row.AccountID,
			AccountCode: row.Code,
			AccountName: row.Name,
			AccountType: row.Type,
			Level:       row.Level,
			IsHeader:    row.IsHeader,
			Debit:       money(row.Debit),
			Credit:      money(row.Credit),
			Balance:     money(row.Balance),
		}
	}
	return out
}

// TrialBalanceFiltersVM echoes the filters a report was built from.
type TrialBalanceFiltersVM struct {
	FromDate           string `json:"from_date,omitempty"`
	ToDate             string `json:"to_date,omitempty"`
	AccountCodeFrom    string `json:"account_code_from,omitempty"`
	AccountCodeTo      string `json:"account_code_to,omitempty"`
	Level              int    `json:"level,omitempty"`
	IncludeZeroBalance bool   `json:"include_zero_balance"`
	Hierarchy          bool   `json:"hierarchy"`
}

// TrialBalanceTotalsVM summarises the leaf rows of the report.
type TrialBalanceTotalsVM struct {
	TotalDebit  string `json:"total_debit"`
	TotalCredit string `json:"total_credit"`
	Balance     string `json:"balance"`
	IsBalanced  bool   `json:"is_balanced"`
}

// TrialBalanceVM is the full trial balance payload.
type TrialBalanceVM struct {
	Filters TrialBalanceFiltersVM `json:"filters"`
	Rows    []RowVM               `json:"rows"`
	Totals  TrialBalanceTotalsVM  `json:"totals"`
}

// TrialBalanceSummaryVM carries the totals without the rows.
type TrialBalanceSummaryVM struct {
	Filters TrialBalanceFiltersVM `json:"filters"`
	Totals  TrialBalanceTotalsVM  `json:"totals"`
}

// NewTrialBalanceVM maps the domain report onto the wire shape.
func NewTrialBalanceVM(res gl.TrialBalanceResult) TrialBalanceVM {
	return TrialBalanceVM{
		Filters: newTrialBalanceFiltersVM(res.Filters),
		Rows:    toRowVMs(res.Report.Rows),
		Totals:  newTrialBalanceTotalsVM(res.Report.Totals),
	}
}

// NewTrialBalanceSummaryVM maps only the footer of the report.
func NewTrialBalanceSummaryVM(res gl.TrialBalanceResult) TrialBalanceSummaryVM {
	return TrialBalanceSummaryVM{
		Filters: newTrialBalanceFiltersVM(res.Filters),
		Totals:  newTrialBalanceTotalsVM(res.Report.Totals),
	}
}

func newTrialBalanceFiltersVM(f gl.TrialBalanceFilters) TrialBalanceFiltersVM {
	return TrialBalanceFiltersVM{
		FromDate:           dateString(f.From),
		ToDate:             dateString(f.To),
		AccountCodeFrom:    f.CodeFrom,
		AccountCodeTo:      f.CodeTo,
		Level:              f.Level,
		IncludeZeroBalance: f.IncludeZero,
		Hierarchy:          f.Hierarchy,
	}
}

func newTrialBalanceTotalsVM(t reports.TrialBalanceTotals) TrialBalanceTotalsVM {
	return TrialBalanceTotalsVM{
		TotalDebit:  money(t.Debit),
		TotalCredit: money(t.Credit),
		Balance:     money(t.Balance),
		IsBalanced:  t.Balanced,
	}
}

// SectionVM is one classification grouping of the balance sheet.
type SectionVM struct {
	Rows  []RowVM `json:"rows"`
	Total string  `json:"total"`
}

// RetainedEarningsVM names the attribution account and the earnings figure.
// An unmapped tenant reports a null account and a zero figure.
type RetainedEarningsVM struct {
	AccountID       *int64 `json:"account_id"`
	AccountCode     string `json:"account_code,omitempty"`
	AccountName     string `json:"account_name,omitempty"`
	CurrentEarnings string `json:"current_earnings"`
}

// BalanceSheetTotalsVM summarises the statement. Retained earnings are
// already folded into total_equity.
type BalanceSheetTotalsVM struct {
	TotalAssets      string `json:"total_assets"`
	TotalLiabilities string `json:"total_liabilities"`
	TotalEquity      string `json:"total_equity"`
	RetainedEarnings string `json:"retained_earnings"`
	BalanceVariance  string `json:"balance_variance"`
	IsBalanced       bool   `json:"is_balanced"`
}

// BalanceSheetSnapshotVM is the position at one cutoff date.
type BalanceSheetSnapshotVM struct {
	AsOfDate         string               `json:"as_of_date"`
	Assets           SectionVM            `json:"assets"`
	Liabilities      SectionVM            `json:"liabilities"`
	Equity           SectionVM            `json:"equity"`
	RetainedEarnings RetainedEarningsVM   `json:"retained_earnings"`
	Totals           BalanceSheetTotalsVM `json:"totals"`
}

// BalanceSheetVM is the full statement payload.
type BalanceSheetVM struct {
	Current    BalanceSheetSnapshotVM  `json:"current"`
	Comparison *BalanceSheetSnapshotVM `json:"comparison,omitempty"`
}

// BalanceSheetSummaryVM carries totals per snapshot without the rows.
type BalanceSheetSummaryVM struct {
	AsOfDate   string                 `json:"as_of_date"`
	Totals     BalanceSheetTotalsVM   `json:"totals"`
	Comparison *BalanceSheetSummaryVM `json:"comparison,omitempty"`
}

// NewBalanceSheetVM maps the statement onto the wire shape.
func NewBalanceSheetVM(res gl.BalanceSheetResult) BalanceSheetVM {
	vm := BalanceSheetVM{Current: newSnapshotVM(res.Current)}
	if res.Comparison != nil {
		comparison := newSnapshotVM(*res.Comparison)
		vm.Comparison = &comparison
	}
	return vm
}

// NewBalanceSheetSummaryVM maps only the totals of each snapshot.
func NewBalanceSheetSummaryVM(res gl.BalanceSheetResult) BalanceSheetSummaryVM {
	vm := BalanceSheetSummaryVM{
		AsOfDate: res.Current.AsOf.Format(dateLayout),
		Totals:   newBalanceSheetTotalsVM(res.Current.Totals),
	}
	if res.Comparison != nil {
		comparison := BalanceSheetSummaryVM{
			AsOfDate: res.Comparison.AsOf.Format(dateLayout),
			Totals:   newBalanceSheetTotalsVM(res.Comparison.Totals),
		}
		vm.Comparison = &comparison
	}
	return vm
}

func newSnapshotVM(snap gl.BalanceSheetSnapshot) BalanceSheetSnapshotVM {
	return BalanceSheetSnapshotVM{
		AsOfDate:         snap.AsOf.Format(dateLayout),
		Assets:           newSectionVM(snap.Assets),
		Liabilities:      newSectionVM(snap.Liabilities),
		Equity:           newSectionVM(snap.Equity),
		RetainedEarnings: newRetainedEarningsVM(snap.Retained),
		Totals:           newBalanceSheetTotalsVM(snap.Totals),
	}
}

func newSectionVM(section reports.BalanceSheetSection) SectionVM {
	return SectionVM{
		Rows:  toRowVMs(section.Rows),
		Total: money(section.Total),
	}
}

func newRetainedEarningsVM(re gl.RetainedEarnings) RetainedEarningsVM {
	return RetainedEarningsVM{
		AccountID:       re.AccountID,
		AccountCode:     re.Code,
		AccountName:     re.Name,
		CurrentEarnings: money(re.CurrentEarnings),
	}
}

func newBalanceSheetTotalsVM(t reports.BalanceSheetTotals) BalanceSheetTotalsVM {
	return BalanceSheetTotalsVM{
		TotalAssets:      money(t.Assets),
		TotalLiabilities: money(t.Liabilities),
		TotalEquity:      money(t.Equity),
		RetainedEarnings: money(t.RetainedEarnings),
		BalanceVariance:  money(t.Variance),
		IsBalanced:       t.Balanced,
	}
}

// StatementFiltersVM echoes the drill-down window.
type StatementFiltersVM struct {
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// AccountVM identifies the account behind a drill-down.
type AccountVM struct {
	AccountID   int64  `json:"account_id"`
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	AccountType string `json:"account_type"`
	Level       int    `json:"level"`
}

// StatementLineVM is one contributing ledger line.
type StatementLineVM struct {
	Date           string `json:"date"`
	Reference      string `json:"reference"`
	Description    string `json:"description,omitempty"`
	Origin         string `json:"origin"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	RunningBalance string `json:"running_balance"`
}

// AccountStatementVM is the drill-down payload behind one report row.
type AccountStatementVM struct {
	Account        AccountVM          `json:"account"`
	Filters        StatementFiltersVM `json:"filters"`
	Lines          []StatementLineVM  `json:"lines"`
	TotalDebit     string             `json:"total_debit"`
	TotalCredit    string             `json:"total_credit"`
	ClosingBalance string             `json:"closing_balance"`
}

// NewAccountStatementVM maps the drill-down onto the wire shape.
func NewAccountStatementVM(st gl.AccountStatement, f gl.StatementFilters) AccountStatementVM {
	lines := make([]StatementLineVM, len(st.Lines))
	for i, line := range st.Lines {
		lines[i] = StatementLineVM{
			Date:           line.Date.Format(dateLayout),
			Reference:      line.Reference,
			Description:    line.Description,
			Origin:         string(line.Origin),
			Debit:          money(line.Debit),
			Credit:         money(line.Credit),
			RunningBalance: money(line.Running),
		}
	}
	return AccountStatementVM{
		Account: AccountVM{
			AccountID:   st.Account.ID,
			AccountCode: st.Account.Code,
			AccountName: st.Account.Name,
			AccountType: string(st.Account.Type),
			Level:       st.Account.Level,
		},
		Filters: StatementFiltersVM{
			FromDate: dateString(f.From),
			ToDate:   dateString(f.To),
		},
		Lines:          lines,
		TotalDebit:     money(st.Debit),
		TotalCredit:    money(st.Credit),
		ClosingBalance: money(st.Closing),
	}
}
