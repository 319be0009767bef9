// Package sweep advances bookings and extensions whose time has passed.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/pesto-students/backend-repo-titans/internal/clock"
	"github.com/pesto-students/backend-repo-titans/internal/config"
	"github.com/pesto-students/backend-repo-titans/internal/db"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/metrics"
)

const (
	NameCompletion      = "completion"
	NameExtensionExpiry = "extension_expiry"

	// ExtensionGrace is how long after a booking ends its pending extension stays open.
	ExtensionGrace = 60 * time.Minute

	runTimeout = 5 * time.Minute
)

type Result struct {
	Candidates   int `json:"candidates"`
	Transitioned int `json:"transitioned"`
	Failed       int `json:"failed"`
}

type Options struct {
	Rule      string
	BatchSize int
	Schedule  string
	Location  *time.Location
}

type Sweeper struct {
	db    *sqlx.DB
	clock clock.Clock
	opts  Options
	cron  *cron.Cron
}

func New(db *sqlx.DB, clk clock.Clock, opts Options) *Sweeper {
	if opts.Rule == "" {
		opts.Rule = config.SweepRuleUniform
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Schedule == "" {
		opts.Schedule = "0 * * * *"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Sweeper{db: db, clock: clk, opts: opts}
}

// completableStatuses lists the statuses the completion sweep moves to completed.
// The legacy rule only completes extended bookings.
func (s *Sweeper) completableStatuses() []string {
	if s.opts.Rule == config.SweepRuleLegacy {
		return []string{"pending"}
	}
	return []string{"scheduled", "pending"}
}

// RunCompletionSweep completes every matching booking whose end is before now.
func (s *Sweeper) RunCompletionSweep(ctx context.Context) (Result, error) {
	var res Result
	today, now := clock.Wall(s.clock.Now(), s.opts.Location)
	statuses := pq.Array(s.completableStatuses())

	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM bookings
		WHERE status = ANY($1)
		  AND (booking_date < $2 OR (booking_date = $2 AND to_time < $3))
		ORDER BY id
	`, statuses, today.Format("2006-01-02"), now)
	if err != nil {
		return res, fmt.Errorf("select finished bookings: %w", err)
	}
	res.Candidates = len(ids)

	for start := 0; start < len(ids); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		n, err := s.completeChunk(ctx, chunk, statuses)
		if err == nil {
			res.Transitioned += n
			continue
		}

		logger.Warn("completion chunk failed, retrying per booking", "size", len(chunk), "error", err)
		for _, id := range chunk {
			n, err := s.completeOne(ctx, id, statuses)
			if err != nil {
				res.Failed++
				logger.Error("booking completion failed", "booking_id", id, "error", err)
				continue
			}
			res.Transitioned += n
		}
	}

	metrics.RecordSweep(NameCompletion, res.Transitioned, res.Failed)
	logger.Info("completion sweep finished",
		"rule", s.opts.Rule,
		"candidates", res.Candidates,
		"completed", res.Transitioned,
		"failed", res.Failed,
	)
	return res, nil
}

func (s *Sweeper) completeChunk(ctx context.Context, ids []int64, statuses interface{}) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET status = 'completed', updated_at = NOW()
		WHERE id = ANY($1) AND status = ANY($2)
	`, pq.Array(ids), statuses)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *Sweeper) completeOne(ctx context.Context, id int64, statuses interface{}) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`, id, statuses)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

type staleExtension struct {
	ID        int `db:"id"`
	BookingID int `db:"booking_id"`
}

// RunExtensionExpirySweep cancels pending extensions on bookings that ended
// more than ExtensionGrace ago. Each extension is resolved on its own.
func (s *Sweeper) RunExtensionExpirySweep(ctx context.Context) (Result, error) {
	var res Result
	cutDate, cutTime := clock.Wall(s.clock.Now().Add(-ExtensionGrace), s.opts.Location)

	var stale []staleExtension
	err := s.db.SelectContext(ctx, &stale, `
		SELECT e.id, e.booking_id
		FROM extensions e
		JOIN bookings b ON b.id = e.booking_id
		WHERE e.status = 'pending'
		  AND (b.booking_date < $1 OR (b.booking_date = $1 AND b.to_time < $2))
		ORDER BY e.id
	`, cutDate.Format("2006-01-02"), cutTime)
	if err != nil {
		return res, fmt.Errorf("select stale extensions: %w", err)
	}
	res.Candidates = len(stale)

	for _, e := range stale {
		expired, err := s.expire(ctx, e)
		if err != nil {
			res.Failed++
			logger.Error("extension expiry failed", "extension_id", e.ID, "booking_id", e.BookingID, "error", err)
			continue
		}
		if expired {
			res.Transitioned++
		}
	}

	metrics.RecordSweep(NameExtensionExpiry, res.Transitioned, res.Failed)
	logger.Info("extension expiry sweep finished",
		"candidates", res.Candidates,
		"cancelled", res.Transitioned,
		"failed", res.Failed,
	)
	return res, nil
}

// expire reports false when the owner resolved the extension after it was selected.
func (s *Sweeper) expire(ctx context.Context, e staleExtension) (bool, error) {
	expired := false
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE extensions SET status = 'cancelled', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, e.ID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		expired = true

		_, err = tx.ExecContext(ctx, `
			UPDATE bookings SET has_active_extension = FALSE, updated_at = NOW() WHERE id = $1
		`, e.BookingID)
		return err
	})
	return expired && err == nil, err
}

// RunOnce runs both sweeps, completion first.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if _, err := s.RunCompletionSweep(ctx); err != nil {
		logger.Error("completion sweep failed", "error", err)
	}
	if _, err := s.RunExtensionExpirySweep(ctx); err != nil {
		logger.Error("extension expiry sweep failed", "error", err)
	}
}

// Start schedules RunOnce. A tick that fires while the previous run is still
// going is skipped. The scheduler stops when ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	_, err := c.AddFunc(s.opts.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		s.RunOnce(runCtx)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.opts.Schedule, err)
	}

	s.cron = c
	c.Start()
	logger.Info("sweeper started", "schedule", s.opts.Schedule, "rule", s.opts.Rule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to return.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
