package gl

import (
	"context"

	"github.com/google/uuid"
)

// MovementSource yields aggregated per-account movement for one origin of
// posted ledger data. Reports consume every source through this interface so
// the aggregation path never branches on origin.
type MovementSource interface {
	Name() string
	Movements(ctx context.Context, companyID uuid.UUID, q MovementQuery) ([]Movement, error)
}

// JournalSource adapts posted journal entries, dated by entry date.
type JournalSource struct {
	repo *Repository
}

// NewJournalSource constructs the journal adapter.
func NewJournalSource(repo *Repository) *JournalSource {
	return &JournalSource{repo: repo}
}

// Name identifies the source in wrapped errors.
func (s *JournalSource) Name() string { return "journal" }

// Movements implements MovementSource.
func (s *JournalSource) Movements(ctx context.Context, companyID uuid.UUID, q MovementQuery) ([]Movement, error) {
	return s.repo.JournalMovements(ctx, companyID, q)
}

// OpeningSource adapts posted opening-balance batches, dated by the start of
// their owning period.
type OpeningSource struct {
	repo *Repository
}

// NewOpeningSource constructs the opening-balance adapter.
func NewOpeningSource(repo *Repository) *OpeningSource {
	return &OpeningSource{repo: repo}
}

// Name identifies the source in wrapped errors.
func (s *OpeningSource) Name() string { return "opening" }

// Movements implements MovementSource.
func (s *OpeningSource) Movements(ctx context.Context, companyID uuid.UUID, q MovementQuery) ([]Movement, error) {
	return s.repo.OpeningMovements(ctx, companyID, q)
}

// DefaultSources wires the two production adapters in reporting order.
func DefaultSources(repo *Repository) []MovementSource {
	return []MovementSource{NewOpeningSource(repo), NewJournalSource(repo)}
}
