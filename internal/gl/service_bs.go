package gl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
)

// BalanceSheetFilters shape the statement of financial position.
type BalanceSheetFilters struct {
	AsOf        time.Time
	Comparison  *time.Time
	IncludeZero bool
	Hierarchy   bool
}

func (f BalanceSheetFilters) validate() error {
	if f.AsOf.IsZero() {
		return fmt.Errorf("%w: as_of_date required", ErrInvalidFilter)
	}
	return nil
}

// BalanceSheetSnapshot is the position at one cutoff date.
type BalanceSheetSnapshot struct {
	AsOf        time.Time
	Assets      reports.BalanceSheetSection
	Liabilities reports.BalanceSheetSection
	Equity      reports.BalanceSheetSection
	Retained    RetainedEarnings
	Totals      reports.BalanceSheetTotals
}

// BalanceSheetResult carries the current snapshot and the optional
// comparison, each computed independently by the same procedure.
type BalanceSheetResult struct {
	Filters    BalanceSheetFilters
	Current    BalanceSheetSnapshot
	Comparison *BalanceSheetSnapshot
}

// BalanceSheet recomputes the statement as of the cutoff. The required
// as_of_date is checked before any store access.
func (s *Service) BalanceSheet(ctx context.Context, companyID uuid.UUID, f BalanceSheetFilters) (BalanceSheetResult, error) {
	if err := f.validate(); err != nil {
		return BalanceSheetResult{}, err
	}
	accounts, err := s.store.AccountsByCompany(ctx, companyID)
	if err != nil {
		return BalanceSheetResult{}, err
	}
	opts := reports.SectionOptions{IncludeZero: f.IncludeZero, Hierarchy: f.Hierarchy}

	current, err := s.snapshot(ctx, companyID, accounts, f.AsOf, opts)
	if err != nil {
		return BalanceSheetResult{}, err
	}
	result := BalanceSheetResult{Filters: f, Current: current}

	if f.Comparison != nil {
		comparison, err := s.snapshot(ctx, companyID, accounts, *f.Comparison, opts)
		if err != nil {
			return BalanceSheetResult{}, err
		}
		result.Comparison = &comparison
	}
	return result, nil
}

// snapshot computes one cutoff. The three classification sections and the
// retained-earnings figure are independent reads, so they fan out together;
// the first failure cancels the rest.
func (s *Service) snapshot(ctx context.Context, companyID uuid.UUID, accounts []Account, asOf time.Time, opts reports.SectionOptions) (BalanceSheetSnapshot, error) {
	snap := BalanceSheetSnapshot{AsOf: asOf}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		section, err := s.section(ctx, companyID, accounts, AccountTypeAsset, asOf, opts)
		if err != nil {
			return err
		}
		snap.Assets = section
		return nil
	})
	g.Go(func() error {
		section, err := s.section(ctx, companyID, accounts, AccountTypeLiability, asOf, opts)
		if err != nil {
			return err
		}
		snap.Liabilities = section
		return nil
	})
	g.Go(func() error {
		section, err := s.section(ctx, companyID, accounts, AccountTypeEquity, asOf, opts)
		if err != nil {
			return err
		}
		snap.Equity = section
		return nil
	})
	g.Go(func() error {
		re, err := s.retainedEarnings(ctx, companyID, accounts, asOf)
		if err != nil {
			return err
		}
		snap.Retained = re
		return nil
	})
	if err := g.Wait(); err != nil {
		return BalanceSheetSnapshot{}, err
	}

	snap.Totals = reports.SummarizeBalanceSheet(snap.Assets, snap.Liabilities, snap.Equity, snap.Retained.CurrentEarnings)
	return snap, nil
}

// section runs the movement pipeline restricted to one classification.
func (s *Service) section(ctx context.Context, companyID uuid.UUID, accounts []Account, accType AccountType, asOf time.Time, opts reports.SectionOptions) (reports.BalanceSheetSection, error) {
	cutoff := asOf
	movement, err := s.movements(ctx, companyID, MovementQuery{Window: Window{To: &cutoff}, Types: []AccountType{accType}})
	if err != nil {
		return reports.BalanceSheetSection{}, err
	}
	scoped := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Type == accType {
			scoped = append(scoped, acc)
		}
	}
	return reports.BuildSection(balancesFor(scoped, movement), opts)
}

// retainedEarnings resolves the attribution account, then computes net income
// through the cutoff. A tenant with no resolvable account gets a zero figure,
// never an error.
func (s *Service) retainedEarnings(ctx context.Context, companyID uuid.UUID, accounts []Account, asOf time.Time) (RetainedEarnings, error) {
	acc, err := s.store.DefaultAccount(ctx, companyID, RoleRetainedEarnings)
	if errors.Is(err, ErrAccountNotFound) {
		acc, err = s.store.AccountByCode(ctx, companyID, s.retainedCode)
	}
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return RetainedEarnings{}, nil
		}
		return RetainedEarnings{}, err
	}

	cutoff := asOf
	movement, err := s.movements(ctx, companyID, MovementQuery{
		Window: Window{To: &cutoff},
		Types:  []AccountType{AccountTypeRevenue, AccountTypeExpense},
	})
	if err != nil {
		return RetainedEarnings{}, err
	}

	net := decimal.Zero
	for _, chartAcc := range accounts {
		mv, ok := movement[chartAcc.ID]
		if !ok {
			continue
		}
		signed, err := reports.SignedBalance(string(chartAcc.Type), mv.Debit, mv.Credit)
		if err != nil {
			return RetainedEarnings{}, err
		}
		switch chartAcc.Type {
		case AccountTypeRevenue:
			net = net.Add(signed)
		case AccountTypeExpense:
			net = net.Sub(signed)
		}
	}

	accID := acc.ID
	return RetainedEarnings{
		AccountID:       &accID,
		Code:            acc.Code,
		Name:            acc.Name,
		CurrentEarnings: net,
	}, nil
}
