package gl

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository provides the ledger queries behind the reporting services. All
// statements are tenant-scoped SELECTs; grouping happens in SQL so raw lines
// never cross the wire for balance reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// wrapQuery decorates store failures with the statement name and, when the
// server reported one, the SQLSTATE. PG details are for logs, never clients.
func wrapQuery(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("gl: %s: %s (sqlstate %s): %w", op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("gl: %s: %w", op, err)
}

func accountTypeStrings(types []AccountType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// JournalMovements sums posted journal lines per account within the window.
func (r *Repository) JournalMovements(ctx context.Context, companyID uuid.UUID, q MovementQuery) ([]Movement, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT jl.account_id,
       COALESCE(SUM(jl.debit), 0)  AS debit,
       COALESCE(SUM(jl.credit), 0) AS credit
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.journal_entry_id
JOIN accounts a ON a.id = jl.account_id
WHERE je.company_id = $1
  AND je.status = 'POSTED'
  AND a.deleted_at IS NULL`
	args := []any{companyID}
	if q.Window.From != nil {
		args = append(args, *q.Window.From)
		query += fmt.Sprintf(" AND je.entry_date >= $%d::date", len(args))
	}
	if q.Window.To != nil {
		args = append(args, *q.Window.To)
		query += fmt.Sprintf(" AND je.entry_date <= $%d::date", len(args))
	}
	if len(q.Types) > 0 {
		args = append(args, accountTypeStrings(q.Types))
		query += fmt.Sprintf(" AND a.type = ANY($%d)", len(args))
	}
	query += " GROUP BY jl.account_id ORDER BY jl.account_id"

	movements, err := r.scanMovements(ctx, query, args)
	if err != nil {
		return nil, wrapQuery("journal movements", err)
	}
	return movements, nil
}

// OpeningMovements sums posted opening-balance lines per account. Batches are
// dated by the start of their owning period, so the window applies to that
// date.
func (r *Repository) OpeningMovements(ctx context.Context, companyID uuid.UUID, q MovementQuery) ([]Movement, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT obl.account_id,
       COALESCE(SUM(obl.debit), 0)  AS debit,
       COALESCE(SUM(obl.credit), 0) AS credit
FROM opening_balance_lines obl
JOIN opening_balances ob ON ob.id = obl.opening_balance_id
JOIN periods p ON p.id = ob.period_id
JOIN accounts a ON a.id = obl.account_id
WHERE ob.company_id = $1
  AND ob.status = 'POSTED'
  AND a.deleted_at IS NULL`
	args := []any{companyID}
	if q.Window.From != nil {
		args = append(args, *q.Window.From)
		query += fmt.Sprintf(" AND p.start_date >= $%d::date", len(args))
	}
	if q.Window.To != nil {
		args = append(args, *q.Window.To)
		query += fmt.Sprintf(" AND p.start_date <= $%d::date", len(args))
	}
	if len(q.Types) > 0 {
		args = append(args, accountTypeStrings(q.Types))
		query += fmt.Sprintf(" AND a.type = ANY($%d)", len(args))
	}
	query += " GROUP BY obl.account_id ORDER BY obl.account_id"

	movements, err := r.scanMovements(ctx, query, args)
	if err != nil {
		return nil, wrapQuery("opening movements", err)
	}
	return movements, nil
}

func (r *Repository) scanMovements(ctx context.Context, query string, args []any) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var mv Movement
		if err := rows.Scan(&mv.AccountID, &mv.Debit, &mv.Credit); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

const accountColumns = `a.id, a.code, a.name, a.type, a.parent_id, a.is_group, a.level, a.is_active, a.created_at, a.updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &acc.ParentID, &acc.IsGroup, &acc.Level, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	return acc, err
}

// AccountsByCompany lists the tenant's chart, soft-deleted nodes excluded.
// Inactive accounts stay listed: they may still carry posted history.
func (r *Repository) AccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]Account, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT ` + accountColumns + `
FROM accounts a
WHERE a.company_id = $1 AND a.deleted_at IS NULL
ORDER BY a.code`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, wrapQuery("list accounts", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, wrapQuery("list accounts", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQuery("list accounts", err)
	}
	return accounts, nil
}

// AccountByID fetches one chart node for the tenant.
func (r *Repository) AccountByID(ctx context.Context, companyID uuid.UUID, id int64) (Account, error) {
	if r == nil || r.pool == nil {
		return Account{}, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT ` + accountColumns + `
FROM accounts a
WHERE a.company_id = $1 AND a.id = $2 AND a.deleted_at IS NULL`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, wrapQuery("account by id", err)
	}
	return acc, nil
}

// AccountByCode fetches one chart node by its account code.
func (r *Repository) AccountByCode(ctx context.Context, companyID uuid.UUID, code string) (Account, error) {
	if r == nil || r.pool == nil {
		return Account{}, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT ` + accountColumns + `
FROM accounts a
WHERE a.company_id = $1 AND a.code = $2 AND a.deleted_at IS NULL`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, wrapQuery("account by code", err)
	}
	return acc, nil
}

// DefaultAccount resolves a role-keyed default account for the tenant, e.g.
// the retained-earnings account.
func (r *Repository) DefaultAccount(ctx context.Context, companyID uuid.UUID, role string) (Account, error) {
	if r == nil || r.pool == nil {
		return Account{}, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT ` + accountColumns + `
FROM account_defaults d
JOIN accounts a ON a.id = d.account_id AND a.deleted_at IS NULL
WHERE d.company_id = $1 AND d.role = $2`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, companyID, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, wrapQuery("default account", err)
	}
	return acc, nil
}

// AccountLines returns the chronological posted lines behind one account,
// journal and opening origins unioned. Opening lines sort ahead of journal
// lines on the same date.
func (r *Repository) AccountLines(ctx context.Context, companyID uuid.UUID, accountID int64, w Window) ([]DetailLine, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT x.line_date, x.reference, x.description, x.origin, x.debit, x.credit
FROM (
    SELECT je.entry_date AS line_date,
           je.entry_no AS reference,
           COALESCE(NULLIF(jl.description, ''), je.memo) AS description,
           'JOURNAL' AS origin,
           jl.debit,
           jl.credit,
           jl.id AS line_id
    FROM journal_lines jl
    JOIN journal_entries je ON je.id = jl.journal_entry_id
    WHERE je.company_id = $1 AND je.status = 'POSTED' AND jl.account_id = $2
    UNION ALL
    SELECT p.start_date AS line_date,
           'OB-' || ob.id::text AS reference,
           COALESCE(obl.description, '') AS description,
           'OPENING' AS origin,
           obl.debit,
           obl.credit,
           obl.id AS line_id
    FROM opening_balance_lines obl
    JOIN opening_balances ob ON ob.id = obl.opening_balance_id
    JOIN periods p ON p.id = ob.period_id
    WHERE ob.company_id = $1 AND ob.status = 'POSTED' AND obl.account_id = $2
) x
WHERE TRUE`
	args := []any{companyID, accountID}
	if w.From != nil {
		args = append(args, *w.From)
		query += fmt.Sprintf(" AND x.line_date >= $%d::date", len(args))
	}
	if w.To != nil {
		args = append(args, *w.To)
		query += fmt.Sprintf(" AND x.line_date <= $%d::date", len(args))
	}
	query += " ORDER BY x.line_date, CASE WHEN x.origin = 'OPENING' THEN 0 ELSE 1 END, x.line_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapQuery("account lines", err)
	}
	defer rows.Close()
	var lines []DetailLine
	for rows.Next() {
		var line DetailLine
		if err := rows.Scan(&line.Date, &line.Reference, &line.Description, &line.Origin, &line.Debit, &line.Credit); err != nil {
			return nil, wrapQuery("account lines", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQuery("account lines", err)
	}
	return lines, nil
}

// CompanyIDs lists every tenant with at least one account, for sweep jobs.
func (r *Repository) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("gl repo not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT company_id FROM accounts WHERE deleted_at IS NULL ORDER BY company_id`)
	if err != nil {
		return nil, wrapQuery("company ids", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQuery("company ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQuery("company ids", err)
	}
	return ids, nil
}

// PostedJournalTotals sums all posted journal movement for a tenant in one
// statement. Unlike the reporting queries it does not join the chart, so
// movement on soft-deleted accounts still counts; the integrity sweep wants
// the whole picture.
func (r *Repository) PostedJournalTotals(ctx context.Context, companyID uuid.UUID, w Window) (decimal.Decimal, decimal.Decimal, error) {
	if r == nil || r.pool == nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("gl repo not initialised")
	}
	query := `
SELECT COALESCE(SUM(jl.debit), 0), COALESCE(SUM(jl.credit), 0)
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.journal_entry_id
WHERE je.company_id = $1 AND je.status = 'POSTED'`
	args := []any{companyID}
	if w.From != nil {
		args = append(args, *w.From)
		query += fmt.Sprintf(" AND je.entry_date >= $%d::date", len(args))
	}
	if w.To != nil {
		args = append(args, *w.To)
		query += fmt.Sprintf(" AND je.entry_date <= $%d::date", len(args))
	}
	var debit, credit decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return decimal.Zero, decimal.Zero, wrapQuery("posted journal totals", err)
	}
	return debit, credit, nil
}
