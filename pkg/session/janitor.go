package session

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultJanitorSchedule runs cleanup daily at 03:00.
const DefaultJanitorSchedule = "0 3 * * *"

// Janitor runs expiry cleanup on a cron schedule.
type Janitor struct {
	store    *Store
	schedule string
	cron     *cron.Cron
	running  bool
}

// NewJanitor creates a janitor for the store. schedule is a standard
// five-field cron expression; empty selects DefaultJanitorSchedule.
func NewJanitor(store *Store, schedule string) *Janitor {
	if schedule == "" {
		schedule = DefaultJanitorSchedule
	}

	return &Janitor{
		store:    store,
		schedule: schedule,
	}
}

// Start begins scheduled cleanup runs.
func (j *Janitor) Start() error {
	if j.running {
		return fmt.Errorf("janitor is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() {
		if _, err := j.store.CleanupExpiredSessions(context.Background()); err != nil {
			log.Error().Err(err).Msg("Scheduled session cleanup failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}

	c.Start()
	j.cron = c
	j.running = true

	log.Info().Str("schedule", j.schedule).Msg("Session janitor started")

	return nil
}

// Stop halts scheduled cleanup runs.
func (j *Janitor) Stop() error {
	if !j.running {
		return fmt.Errorf("janitor is not running")
	}

	j.cron.Stop()
	j.cron = nil
	j.running = false

	log.Info().Msg("Session janitor stopped")

	return nil
}

// IsRunning returns whether the janitor is running.
func (j *Janitor) IsRunning() bool {
	return j.running
}

// RunNow immediately runs one cleanup pass.
func (j *Janitor) RunNow(ctx context.Context) (int, error) {
	return j.store.CleanupExpiredSessions(ctx)
}
