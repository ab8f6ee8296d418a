package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/presencelab/go-presence-sync/internal/domain"
	"github.com/presencelab/go-presence-sync/internal/reconcile"
	"github.com/presencelab/go-presence-sync/internal/repo"
)

// Runner is the reconciliation capability consumed by SyncService.
type Runner interface {
	Run(ctx context.Context) (reconcile.Summary, error)
}

// SyncService triggers reconciliation passes and records each finished
// run in the history table. It is shared by the HTTP trigger endpoint
// and the in-process cron schedule.
type SyncService struct {
	// DB is the GORM handle for run history.
	DB *gorm.DB
	// Rec runs the actual loop.
	Rec Runner
	Log zerolog.Logger
}

// NewSyncService constructs a SyncService.
func NewSyncService(db *gorm.DB, rec Runner, log zerolog.Logger) *SyncService {
	return &SyncService{DB: db, Rec: rec, Log: log.With().Str("component", "sync").Logger()}
}

// Trigger executes one reconciliation pass and persists its run record.
// trigger names what started the pass ("api" or "cron"). A failure to
// persist the run record is logged but does not fail the pass; the
// reconciliation itself already happened.
func (s *SyncService) Trigger(ctx context.Context, trigger string) (reconcile.Summary, error) {
	sum, err := s.Rec.Run(ctx)
	if err != nil {
		return sum, err
	}

	run := &domain.ReconcileRun{
		StartedAt:    sum.StartedAt,
		FinishedAt:   sum.FinishedAt,
		DurationMS:   sum.FinishedAt.Sub(sum.StartedAt).Milliseconds(),
		UsersChecked: sum.Checked,
		UsersChanged: len(sum.Changed),
		UsersErrored: sum.Errored,
		UsersCreated: sum.Created,
		ChangedTris:  sum.ChangedJSON(),
		Trigger:      trigger,
	}
	if s.DB != nil {
		if err := repo.CreateRun(ctx, s.DB, run); err != nil {
			s.Log.Error().Err(err).Msg("failed to persist run record")
		}
	}
	return sum, nil
}

// RunsPage returns a page of recorded runs, most recent first, plus the
// total count. Invalid page/pageSize values fall back to defaults.
func (s *SyncService) RunsPage(ctx context.Context, page, pageSize int) ([]domain.ReconcileRun, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRuns(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ReconcileRun{}, 0, nil
	}

	items, err := repo.ListRunsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}
