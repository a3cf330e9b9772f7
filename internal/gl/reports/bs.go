package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceSheetSection holds the rows and signed total for one classification.
type BalanceSheetSection struct {
	Rows  []Row
	Total decimal.Decimal
}

// BalanceSheetTotals summarises the statement. Variance is assets minus the
// sum of liabilities and equity, with retained earnings already folded into
// the equity figure.
type BalanceSheetTotals struct {
	Assets           decimal.Decimal
	Liabilities      decimal.Decimal
	Equity           decimal.Decimal
	RetainedEarnings decimal.Decimal
	Variance         decimal.Decimal
	Balanced         bool
}

// SectionOptions control balance sheet section assembly.
type SectionOptions struct {
	IncludeZero bool
	Hierarchy   bool
}

// BuildSection assembles one classification-scoped section: rows are signed,
// ordered by code, optionally rolled up, and zero-suppressed unless asked
// otherwise. The section total covers non-header rows only.
func BuildSection(balances []AccountBalance, opts SectionOptions) (BalanceSheetSection, error) {
	rows := make([]Row, 0, len(balances))
	for _, bal := range balances {
		signed, err := SignedBalance(bal.Type, bal.Debit, bal.Credit)
		if err != nil {
			return BalanceSheetSection{}, err
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

	total := decimal.Zero
	for _, row := range rows {
		if row.IsHeader {
			continue
		}
		total = total.Add(row.Balance)
	}
	return BalanceSheetSection{Rows: rows, Total: total}, nil
}

// SummarizeBalanceSheet folds retained earnings into equity and checks the
// accounting identity.
func SummarizeBalanceSheet(assets, liabilities, equity BalanceSheetSection, retained decimal.Decimal) BalanceSheetTotals {
	equityTotal := equity.Total.Add(retained)
	variance := assets.Total.Sub(liabilities.Total.Add(equityTotal))
	return BalanceSheetTotals{
		Assets:           assets.Total,
		Liabilities:      liabilities.Total,
		Equity:           equityTotal,
		RetainedEarnings: retained,
		Variance:         variance,
		Balanced:         Balanced(variance),
	}
}
