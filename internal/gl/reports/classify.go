package reports

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownClassification indicates an account whose type is outside the
// reporting sign table. This is corrupt chart data, not caller input, so it
// must never be downgraded to a validation failure or defaulted away.
var ErrUnknownClassification = errors.New("reports: unknown account classification")

// balanceTolerance is the spread below which a report counts as balanced.
var balanceTolerance = decimal.New(1, -2)

// SignedBalance converts raw debit and credit sums into the signed balance
// reported for the given classification. Debit-natural accounts report
// debit minus credit, credit-natural accounts the reverse.
func SignedBalance(classification string, debit, credit decimal.Decimal) (decimal.Decimal, error) {
	switch strings.ToUpper(classification) {
	case "ASSET", "EXPENSE":
		return debit.Sub(credit), nil
	case "LIABILITY", "EQUITY", "REVENUE":
		return credit.Sub(debit), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownClassification, classification)
	}
}

// Balanced reports whether the given spread is within the accepted tolerance.
func Balanced(spread decimal.Decimal) bool {
	return spread.Abs().Cmp(balanceTolerance) < 0
}
