// Package scheduler runs the periodic housekeeping jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/afalagi/internal/store"
	"github.com/erazemk/afalagi/internal/wizard"
)

// Scheduler purges expired revocations and, when drafts live in SQLite,
// abandoned wizard drafts.
type Scheduler struct {
	cron        *cron.Cron
	db          *sql.DB
	purgeDrafts bool
	now         func() time.Time
}

// New returns a scheduler for db. Set purgeDrafts when wizard drafts are kept
// in SQLite; Redis expires them on its own.
func New(db *sql.DB, purgeDrafts bool) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		db:          db,
		purgeDrafts: purgeDrafts,
		now:         time.Now,
	}
}

// Start registers the jobs and starts running them.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.runPurge); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("scheduler started", "purge_drafts", s.purgeDrafts)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Error("scheduler did not stop in time", "error", ctx.Err())
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.Purge(ctx)
}

// Purge runs every housekeeping job once. Failures are logged and do not
// stop the remaining jobs.
func (s *Scheduler) Purge(ctx context.Context) {
	now := s.now()

	n, err := store.PurgeExpiredTokens(ctx, s.db, now)
	if err != nil {
		slog.Error("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged revoked tokens", "count", n)
	}

	if !s.purgeDrafts {
		return
	}
	n, err = store.PurgeDrafts(ctx, s.db, now.Add(-wizard.DraftTTL))
	if err != nil {
		slog.Error("failed to purge sighting drafts", "error", err)
	} else if n > 0 {
		slog.Info("purged sighting drafts", "count", n)
	}
}
