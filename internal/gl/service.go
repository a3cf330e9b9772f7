package gl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
)

// Store abstracts the chart and drill-down queries the reporting services
// need. *Repository satisfies it.
type Store interface {
	AccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]Account, error)
	AccountByID(ctx context.Context, companyID uuid.UUID, id int64) (Account, error)
	AccountByCode(ctx context.Context, companyID uuid.UUID, code string) (Account, error)
	DefaultAccount(ctx context.Context, companyID uuid.UUID, role string) (Account, error)
	AccountLines(ctx context.Context, companyID uuid.UUID, accountID int64, w Window) ([]DetailLine, error)
}

// DefaultRetainedEarningsCode matches the account the legacy chart importer
// seeds for accumulated profit.
const DefaultRetainedEarningsCode = "3200"

// Service assembles financial reports from movement sources and the chart.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	store        Store
	sources      []MovementSource
	retainedCode string
}

// Option tweaks service construction.
type Option func(*Service)

// WithRetainedEarningsCode overrides the fallback account code used when the
// tenant has no RETAINED_EARNINGS default mapped.
func WithRetainedEarningsCode(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.retainedCode = code
		}
	}
}

// NewService constructs the reporting service.
func NewService(store Store, sources []MovementSource, opts ...Option) *Service {
	svc := &Service{store: store, sources: sources, retainedCode: DefaultRetainedEarningsCode}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// movements fans the query across every source and merges the contributions.
func (s *Service) movements(ctx context.Context, companyID uuid.UUID, q MovementQuery) (map[int64]Movement, error) {
	sets := make([][]Movement, 0, len(s.sources))
	for _, src := range s.sources {
		set, err := src.Movements(ctx, companyID, q)
		if err != nil {
			return nil, fmt.Errorf("gl: %s source: %w", src.Name(), err)
		}
		sets = append(sets, set)
	}
	return Combine(sets...), nil
}

// balancesFor joins aggregated movement onto chart accounts. Accounts with no
// contribution come through with zero sums; the builders decide visibility.
func balancesFor(accounts []Account, movement map[int64]Movement) []reports.AccountBalance {
	out := make([]reports.AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		mv := movement[acc.ID]
		out = append(out, reports.AccountBalance{
			AccountID: acc.ID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      string(acc.Type),
			Level:     acc.Level,
			IsHeader:  acc.IsGroup,
			ParentID:  acc.ParentID,
			Debit:     mv.Debit,
			Credit:    mv.Credit,
		})
	}
	return out
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: from_date after to_date", ErrInvalidFilter)
	}
	return nil
}

// StatementFilters bound the drill-down window.
type StatementFilters struct {
	From *time.Time
	To   *time.Time
}

// AccountStatement returns the chronological posted lines behind one account
// with a sign-aware running balance.
func (s *Service) AccountStatement(ctx context.Context, companyID uuid.UUID, accountID int64, f StatementFilters) (AccountStatement, error) {
	if err := validateWindow(f.From, f.To); err != nil {
		return AccountStatement{}, err
	}
	acc, err := s.store.AccountByID(ctx, companyID, accountID)
	if err != nil {
		return AccountStatement{}, err
	}
	lines, err := s.store.AccountLines(ctx, companyID, accountID, Window{From: f.From, To: f.To})
	if err != nil {
		return AccountStatement{}, err
	}

	st := AccountStatement{Account: acc, Lines: lines}
	running := decimal.Zero
	for i := range st.Lines {
		signed, err := reports.SignedBalance(string(acc.Type), st.Lines[i].Debit, st.Lines[i].Credit)
		if err != nil {
			return AccountStatement{}, err
		}
		running = running.Add(signed)
		st.Lines[i].Running = running
		st.Debit = st.Debit.Add(st.Lines[i].Debit)
		st.Credit = st.Credit.Add(st.Lines[i].Credit)
	}
	closing, err := reports.SignedBalance(string(acc.Type), st.Debit, st.Credit)
	if err != nil {
		return AccountStatement{}, err
	}
	st.Closing = closing
	return st, nil
}
