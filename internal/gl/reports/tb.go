package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountBalance models a chart account with its aggregated period movement.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      string
	Level     int
	IsHeader  bool
	ParentID  *int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Row is one report line: gross per-side sums plus the signed balance.
type Row struct {
	AccountID int64
	Code      string
	Name      string
	Type      string
	Level     int
	IsHeader  bool
	ParentID  *int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Balance   decimal.Decimal
}

// TrialBalanceTotals summarises the non-header rows of a trial balance.
type TrialBalanceTotals struct {
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Balance  decimal.Decimal
	Balanced bool
}

// TrialBalance is the assembled report.
type TrialBalance struct {
	Rows   []Row
	Totals TrialBalanceTotals
}

// TrialBalanceOptions control row selection and presentation.
type TrialBalanceOptions struct {
	CodeFrom    string
	CodeTo      string
	Level       int
	IncludeZero bool
	Hierarchy   bool
}

// BuildTrialBalance assembles a trial balance from aggregated balances.
// Selection filters apply first, then signing, then the hierarchy rollup,
// then zero suppression. Totals foot the returned non-header rows; a
// suppressed row carries equal debit and credit, so suppression never
// flips the balanced flag.
func BuildTrialBalance(balances []AccountBalance, opts TrialBalanceOptions) (TrialBalance, error) {
	rows := make([]Row, 0, len(balances))
	for _, bal := range balances {
		if !matchesFilters(bal, opts) {
			continue
		}
		signed, err := SignedBalance(bal.Type, bal.Debit, bal.Credit)
		if err != nil {
			return TrialBalance{}, err
		}
		rows = append(rows, Row{
			AccountID: bal.AccountID,
			Code:      bal.Code,
			Name:      bal.Name,
			Type:      bal.Type,
			Level:     bal.Level,
			IsHeader:  bal.IsHeader,
			ParentID:  bal.ParentID,
			Debit:     bal.Debit,
			Credit:    bal.Credit,
			Balance:   signed,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	if opts.Hierarchy {
		rows = Rollup(rows)
	}
	if !opts.IncludeZero {
		rows = suppressZero(rows)
	}

	totals := TrialBalanceTotals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, row := range rows {
		if row.IsHeader {
			continue
		}
		totals.Debit = totals.Debit.Add(row.Debit)
		totals.Credit = totals.Credit.Add(row.Credit)
	}
	totals.Balance = totals.Debit.Sub(totals.Credit)
	totals.Balanced = Balanced(totals.Balance)

	return TrialBalance{Rows: rows, Totals: totals}, nil
}

func matchesFilters(bal AccountBalance, opts TrialBalanceOptions) bool {
	if opts.CodeFrom != "" && bal.Code < opts.CodeFrom {
		return false
	}
	if opts.CodeTo != "" && bal.Code > opts.CodeTo {
		return false
	}
	if opts.Level > 0 && bal.Level != opts.Level {
		return false
	}
	return true
}

// suppressZero drops leaf rows whose signed balance is exactly zero. Header
// rows always survive.
func suppressZero(rows []Row) []Row {
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !row.IsHeader && row.Balance.IsZero() {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}
