// Package gl computes ledger balances and assembles the financial reports
// served by the API: trial balance, balance sheet, and per-account statements.
// It is strictly read-only; posting, account maintenance, and period
// management live upstream.
package gl

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-gl/internal/gl/reports"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// JournalStatus enumerates journal lifecycle values. Reporting reads POSTED
// entries only; DRAFT and VOID never contribute.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoid   JournalStatus = "VOID"
)

// OpeningStatus enumerates opening-balance batch states.
type OpeningStatus string

const (
	OpeningStatusDraft  OpeningStatus = "DRAFT"
	OpeningStatusPosted OpeningStatus = "POSTED"
)

// MovementOrigin tags which source produced a detail line.
type MovementOrigin string

const (
	OriginJournal MovementOrigin = "JOURNAL"
	OriginOpening MovementOrigin = "OPENING"
)

// RoleRetainedEarnings keys the default-account lookup for the equity account
// that absorbs accumulated profit.
const RoleRetainedEarnings = "RETAINED_EARNINGS"

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	ParentID  *int64
	IsGroup   bool
	Level     int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Movement is one account's aggregated debit and credit contribution from a
// single source.
type Movement struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Window bounds movement selection. Both ends are inclusive and either may be
// open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// MovementQuery narrows a movement scan beyond the tenant scope.
type MovementQuery struct {
	Window Window
	Types  []AccountType
}

// DetailLine is one contributing ledger line behind a report row.
type DetailLine struct {
	Date        time.Time
	Reference   string
	Description string
	Origin      MovementOrigin
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Running     decimal.Decimal
}

// AccountStatement is the drill-down behind a trial balance row.
type AccountStatement struct {
	Account Account
	Lines   []DetailLine
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Closing decimal.Decimal
}

// RetainedEarnings carries the resolved retained-earnings attribution: the
// account the figure is reported under and the net income through the cutoff.
// When no account resolves for the tenant the figure is zero; that is a valid
// state for a young ledger, not an error.
type RetainedEarnings struct {
	AccountID       *int64
	Code            string
	Name            string
	CurrentEarnings decimal.Decimal
}

var (
	// ErrAccountNotFound indicates the account does not exist for the tenant.
	ErrAccountNotFound = errors.New("gl: account not found")
	// ErrInvalidFilter indicates caller-supplied filters failed validation.
	ErrInvalidFilter = errors.New("gl: invalid filter")
	// ErrUnknownClassification re-exports the reporting sign-table failure so
	// callers depend on one package.
	ErrUnknownClassification = reports.ErrUnknownClassification
)
