package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-gl/internal/gl"
	jobmetrics "github.com/meridian-erp/meridian-gl/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan re-foots posted journals per company.
	TaskLedgerIntegrityScan = "gl:integrity_scan"

	integrityStatusTTL    = 48 * time.Hour
	integrityStatusPrefix = "gl:integrity:"
)

// driftTolerance matches the report balance tolerance: a difference of one
// cent or more between posted debits and credits counts as drift.
var driftTolerance = decimal.New(1, -2)

// LedgerIntegrityScanPayload configures the scope of an integrity sweep.
type LedgerIntegrityScanPayload struct {
	CompanyID string `json:"company_id"`
}

// LedgerStore provides the ledger lookups the integrity sweep needs.
type LedgerStore interface {
	CompanyIDs(ctx context.Context) ([]uuid.UUID, error)
	PostedJournalTotals(ctx context.Context, companyID uuid.UUID, w gl.Window) (decimal.Decimal, decimal.Decimal, error)
}

// LedgerIntegrityJob verifies that posted journals still foot for every
// company and records the outcome where the API can surface it.
type LedgerIntegrityJob struct {
	Store   LedgerStore
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLedgerIntegrityJob constructs the job handler.
func NewLedgerIntegrityJob(store LedgerStore, rdb *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{
		Store:   store,
		Redis:   rdb,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewLedgerIntegrityScanTask creates an Asynq task for the integrity sweep.
// An empty company id scans every tenant.
func NewLedgerIntegrityScanTask(companyID string) (*asynq.Task, error) {
	if companyID == "" {
		companyID = "all"
	}
	payload := LedgerIntegrityScanPayload{CompanyID: companyID}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, body, asynq.Queue(QueueDefault)), nil
}

// Handle executes the integrity sweep.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("ledger integrity: store not configured")
	}
	var payload LedgerIntegrityScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID == "" {
		payload.CompanyID = "all"
	}

	tracker := j.metrics().Track(TaskLedgerIntegrityScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.log().With(slog.String("scope", payload.CompanyID))
	logger.Info("starting integrity scan")

	companies, err := j.resolveCompanies(ctx, payload.CompanyID)
	if err != nil {
		resultErr = err
		logger.Error("resolve companies", slog.Any("error", err))
		return resultErr
	}
	if len(companies) == 0 {
		logger.Info("no companies discovered for integrity scan")
		return resultErr
	}

	start := j.now()
	drifted := 0
	for _, companyID := range companies {
		drift, err := j.checkCompany(ctx, companyID)
		if err != nil {
			resultErr = err
			logger.Error("check company", slog.String("company_id", companyID.String()), slog.Any("error", err))
			return resultErr
		}
		if drift {
			drifted++
		}
	}

	logger.Info("completed integrity scan",
		slog.Int("companies", len(companies)),
		slog.Int("drifted", drifted),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LedgerIntegrityJob) checkCompany(ctx context.Context, companyID uuid.UUID) (bool, error) {
	debit, credit, err := j.Store.PostedJournalTotals(ctx, companyID, gl.Window{})
	if err != nil {
		return false, err
	}
	diff := debit.Sub(credit).Abs()
	if diff.Cmp(driftTolerance) < 0 {
		j.setStatus(ctx, companyID, "ok")
		return false, nil
	}

	severity := "MEDIUM"
	if diff.Cmp(decimal.New(1, 0)) >= 0 {
		severity = "HIGH"
	}
	j.log().Warn("ledger drift detected",
		slog.String("company_id", companyID.String()),
		slog.String("debit", debit.StringFixed(2)),
		slog.String("credit", credit.StringFixed(2)),
		slog.String("drift", diff.StringFixed(2)),
		slog.String("severity", severity),
	)
	j.metrics().AddDrift(severity, companyID, 1)
	j.setStatus(ctx, companyID, "drift:"+diff.StringFixed(2))
	return true, nil
}

func (j *LedgerIntegrityJob) setStatus(ctx context.Context, companyID uuid.UUID, status string) {
	if j.Redis == nil {
		return
	}
	if err := j.Redis.Set(ctx, integrityStatusKey(companyID), status, integrityStatusTTL).Err(); err != nil {
		j.log().Warn("store integrity status", slog.String("company_id", companyID.String()), slog.Any("error", err))
	}
}

func (j *LedgerIntegrityJob) resolveCompanies(ctx context.Context, scope string) ([]uuid.UUID, error) {
	if scope == "" || scope == "all" {
		return j.Store.CompanyIDs(ctx)
	}
	id, err := uuid.Parse(scope)
	if err != nil {
		return nil, fmt.Errorf("invalid company id %s", scope)
	}
	return []uuid.UUID{id}, nil
}

func integrityStatusKey(companyID uuid.UUID) string {
	return integrityStatusPrefix + companyID.String()
}

func (j *LedgerIntegrityJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerIntegrityJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrityScan))
}

func (j *LedgerIntegrityJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *LedgerIntegrityJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
