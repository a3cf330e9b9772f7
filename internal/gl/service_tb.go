package gl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
)

// TrialBalanceFilters select and shape trial balance rows.
type TrialBalanceFilters struct {
	From        *time.Time
	To          *time.Time
	CodeFrom    string
	CodeTo      string
	Level       int
	IncludeZero bool
	Hierarchy   bool
}

func (f TrialBalanceFilters) validate() error {
	if err := validateWindow(f.From, f.To); err != nil {
		return err
	}
	if f.CodeFrom != "" && f.CodeTo != "" && f.CodeFrom > f.CodeTo {
		return fmt.Errorf("%w: account_code_from after account_code_to", ErrInvalidFilter)
	}
	if f.Level < 0 {
		return fmt.Errorf("%w: level must not be negative", ErrInvalidFilter)
	}
	return nil
}

// TrialBalanceResult pairs the report with the filters that produced it.
type TrialBalanceResult struct {
	Filters TrialBalanceFilters
	Report  reports.TrialBalance
}

// TrialBalance recomputes the trial balance from posted movement. Validation
// runs before any store access.
func (s *Service) TrialBalance(ctx context.Context, companyID uuid.UUID, f TrialBalanceFilters) (TrialBalanceResult, error) {
	if err := f.validate(); err != nil {
		return TrialBalanceResult{}, err
	}
	movement, err := s.movements(ctx, companyID, MovementQuery{Window: Window{From: f.From, To: f.To}})
	if err != nil {
		return TrialBalanceResult{}, err
	}
	accounts, err := s.store.AccountsByCompany(ctx, companyID)
	if err != nil {
		return TrialBalanceResult{}, err
	}
	report, err := reports.BuildTrialBalance(balancesFor(accounts, movement), reports.TrialBalanceOptions{
		CodeFrom:    f.CodeFrom,
		CodeTo:      f.CodeTo,
		Level:       f.Level,
		IncludeZero: f.IncludeZero,
		Hierarchy:   f.Hierarchy,
	})
	if err != nil {
		return TrialBalanceResult{}, err
	}
	return TrialBalanceResult{Filters: f, Report: report}, nil
}
