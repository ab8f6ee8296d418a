// Package reconcile drives the leave-reconciliation engine across all
// known users: one stateless pass that re-derives every user's leave
// and recurring-day data from the calendar backend, compares it with
// the cached store row, and upserts only on change or error.
//
// The loop is idempotent by construction. A crash mid-run loses
// nothing: the next run re-derives everything from the live calendar
// source and detects any still-unpersisted diff again.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/presencelab/go-presence-sync/internal/directory"
	"github.com/presencelab/go-presence-sync/internal/domain"
	"github.com/presencelab/go-presence-sync/internal/leave"
)

// DefaultConcurrency bounds simultaneous in-flight calendar searches.
// Seven keeps load on the calendar backend modest while clearing a
// typical office headcount in a few seconds.
const DefaultConcurrency = 7

// Store is the record-store capability required by the loop.
type Store interface {
	// ListAll fetches the full presence table once per run.
	ListAll(ctx context.Context) ([]domain.UserRecord, error)
	// Create inserts a new field-name-addressed row.
	Create(ctx context.Context, fields map[string]any) (*domain.UserRecord, error)
	// Patch partially updates a row by its store identity.
	Patch(ctx context.Context, rowID int64, fields map[string]any) error
}

// Calendar is the directory/calendar capability required by the loop.
type Calendar interface {
	// AllUserIDs returns the directory's full uid list.
	AllUserIDs(ctx context.Context) ([]string, error)
	// UserProfile fetches the lightweight profile for one uid.
	UserProfile(ctx context.Context, uid string) (*domain.Profile, error)
	// SearchCalendar returns presence-tagged events inside the window.
	// Upstream failures are reported as *directory.UpstreamError.
	SearchCalendar(ctx context.Context, uid string, w domain.DateWindow) ([]domain.CalendarEvent, error)
}

// Summary is the externally visible result of one reconciliation pass.
type Summary struct {
	// Changed lists the tri codes of records written this run, in
	// completion order (non-deterministic across users).
	Changed []string `json:"changed"`
	// Checked counts records that passed the enabled/exclude gate.
	Checked int `json:"checked"`
	// Errored counts users whose calendar lookup failed.
	Errored int `json:"errored"`
	// Created counts store rows created for newly discovered uids.
	Created    int       `json:"created"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Service runs the reconciliation loop. All collaborators are injected;
// the zero value is not usable.
type Service struct {
	Store Store
	Dir   Calendar
	// Concurrency caps in-flight per-user reconciliations; values <= 0
	// fall back to DefaultConcurrency.
	Concurrency int
	// Now is the clock, swappable in tests. Defaults to time.Now.
	Now func() time.Time
	Log zerolog.Logger
}

// NewService constructs a Service with the default concurrency cap.
func NewService(store Store, dir Calendar, log zerolog.Logger) *Service {
	return &Service{
		Store:       store,
		Dir:         dir,
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
		Log:         log.With().Str("component", "reconcile").Logger(),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run executes one full reconciliation pass:
//
//  1. snapshot the presence table and the directory uid list (each
//     fetched exactly once, so all decisions share one view),
//  2. create store rows for uids missing from the table, sequentially,
//     with per-uid error capture so one malformed profile cannot abort
//     the batch,
//  3. reconcile every enabled, non-excluded record under the
//     concurrency cap,
//  4. return the changed-tri list with run statistics.
//
// Newly created rows are not reconciled in the same run; they join the
// next pass once someone enables them.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Changed: []string{}, StartedAt: s.now().UTC()}

	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return sum, err
	}
	uids, err := s.Dir.AllUserIDs(ctx)
	if err != nil {
		return sum, err
	}

	known := make(map[string]struct{}, len(records))
	for _, rec := range records {
		known[rec.UID] = struct{}{}
	}

	// New-user creation is rare, so it stays sequential and outside
	// the concurrency cap.
	for _, uid := range uids {
		if _, ok := known[uid]; ok {
			continue
		}
		if err := s.createRecord(ctx, uid); err != nil {
			s.Log.Warn().Err(err).Str("uid", uid).Msg("skipping user creation")
			continue
		}
		sum.Created++
		recordsCreated.Inc()
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	sem := make(chan struct{}, limit)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, rec := range records {
		if !rec.Enabled || rec.Exclude {
			continue
		}
		sum.Checked++

		wg.Add(1)
		go func(rec domain.UserRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			changed, errored := s.reconcileUser(ctx, rec)
			mu.Lock()
			if changed {
				sum.Changed = append(sum.Changed, rec.Tri)
			}
			if errored {
				sum.Errored++
			}
			mu.Unlock()
		}(rec)
	}
	wg.Wait()

	sum.FinishedAt = s.now().UTC()
	runDuration.Observe(sum.FinishedAt.Sub(sum.StartedAt).Seconds())
	s.Log.Info().
		Int("checked", sum.Checked).
		Int("changed", len(sum.Changed)).
		Int("errored", sum.Errored).
		Int("created", sum.Created).
		Msg("reconciliation run finished")
	return sum, nil
}

// createRecord looks up the lightweight profile for uid and inserts the
// matching store row.
func (s *Service) createRecord(ctx context.Context, uid string) error {
	profile, err := s.Dir.UserProfile(ctx, uid)
	if err != nil {
		return err
	}
	_, err = s.Store.Create(ctx, map[string]any{
		"tri":  directory.TriFromLogin(profile.Value.Login),
		"name": profile.DisplayName,
		"uid":  uid,
	})
	return err
}

// reconcileUser derives one user's presence data and upserts the store
// row when it differs from the cached serialization, or unconditionally
// when the calendar lookup failed. It reports whether the row was
// written and whether the lookup errored.
//
// A failed upsert is logged and dropped for this run; the cached row
// stays stale, so the next run detects the same diff and retries
// naturally.
func (s *Service) reconcileUser(ctx context.Context, rec domain.UserRecord) (changed, errored bool) {
	now := s.now()
	events, err := s.Dir.SearchCalendar(ctx, rec.UID, leave.YearWindow(now))

	tto := []domain.LeaveEntry{}
	ttr := []int{}
	if err == nil {
		tto = leave.ApprovedLeave(events)
		ttr = leave.RecurringDays(events, now)
	}

	ttoStr, ttrStr := encodeLeave(tto), encodeDays(ttr)
	if err == nil && ttoStr == rec.TTO && ttrStr == rec.TTR {
		usersChecked.WithLabelValues("unchanged").Inc()
		return false, false
	}

	fields := map[string]any{
		"tto":        ttoStr,
		"total":      totalDays(tto),
		"ttr":        ttrStr,
		"last-check": now.UTC().Format(time.RFC3339),
	}
	if err != nil {
		errored = true
		usersChecked.WithLabelValues("error").Inc()
		fields["log"] = upstreamMessage(err)
		s.Log.Warn().Err(err).Str("tri", rec.Tri).Msg("calendar lookup failed")
	} else {
		usersChecked.WithLabelValues("changed").Inc()
	}

	if perr := s.Store.Patch(ctx, rec.ID, fields); perr != nil {
		patchFailures.Inc()
		s.Log.Error().Err(perr).Str("tri", rec.Tri).Int64("row", rec.ID).Msg("upsert failed")
		return false, errored
	}
	return true, errored
}

// upstreamMessage extracts the message persisted on the record's log
// field. Upstream calendar errors keep their original message; other
// failures (transport, decoding) use the error text.
func upstreamMessage(err error) string {
	var ue *directory.UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}

// ChangedJSON serializes the changed-tri list compactly for persistence
// on a run record.
func (s Summary) ChangedJSON() string {
	b, err := json.Marshal(s.Changed)
	if err != nil {
		return "[]"
	}
	return string(b)
}
