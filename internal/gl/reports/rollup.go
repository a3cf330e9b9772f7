package reports

import "github.com/shopspring/decimal"

type rollupSums struct {
	debit   decimal.Decimal
	credit  decimal.Decimal
	balance decimal.Decimal
}

// Rollup recomputes every header row's totals from its immediate non-header
// children present in the row set, discarding the header's raw movement.
// Header children do not contribute and grandchildren are never reached; a
// header with no qualifying children reports zero.
func Rollup(rows []Row) []Row {
	children := make(map[int64]rollupSums)
	for _, row := range rows {
		if row.IsHeader || row.ParentID == nil {
			continue
		}
		s := children[*row.ParentID]
		s.debit = s.debit.Add(row.Debit)
		s.credit = s.credit.Add(row.Credit)
		s.balance = s.balance.Add(row.Balance)
		children[*row.ParentID] = s
	}

	rolled := make([]Row, len(rows))
	copy(rolled, rows)
	for i := range rolled {
		if !rolled[i].IsHeader {
			continue
		}
		s := children[rolled[i].AccountID]
		rolled[i].Debit = s.debit
		rolled[i].Credit = s.credit
		rolled[i].Balance = s.balance
	}
	return rolled
}
