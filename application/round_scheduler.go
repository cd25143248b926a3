package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// RoundScheduler keeps a live round open and settles rounds as they expire.
// Ticks in several processes may overlap; settlement's compare-and-set keeps that safe.
type RoundScheduler struct {
	settler  *RoundSettler
	schedule string
	now      func() time.Time
}

// NewRoundScheduler creates a scheduler that ticks on a robfig/cron schedule such as "@every 10s"
func NewRoundScheduler(settler *RoundSettler, schedule string) *RoundScheduler {
	return &RoundScheduler{
		settler:  settler,
		schedule: schedule,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start runs one tick immediately and then on every scheduled tick until the returned stop function is called.
// Stop waits for a running tick to finish.
func (s *RoundScheduler) Start(ctx context.Context) (func(), error) {
	logger := cron.PrintfLogger(log.StandardLogger())
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	if _, err := c.AddFunc(s.schedule, func() { s.Tick(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid scheduler schedule %q: %w", s.schedule, err)
	}

	s.Tick(ctx)
	c.Start()
	log.WithField("schedule", s.schedule).Info("Round scheduler started")

	return func() {
		<-c.Stop().Done()
		log.Info("Round scheduler stopped")
	}, nil
}

// Tick ensures a live round exists, settles it once expired and runs the recovery pass
func (s *RoundScheduler) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	now := s.now()

	round, err := s.settler.EnsureLiveRound(ctx, now)
	if err != nil {
		log.WithError(err).Error("Failed to ensure live round")
		return
	}

	if round.IsExpired(now) {
		if _, err := s.settler.SettleRound(ctx, round.ID, now, false, TriggerScheduler); err != nil {
			log.WithError(err).WithField("roundID", round.ID).Error("Failed to settle expired round")
		}
	}

	if _, err := s.settler.ResumePendingBets(ctx, now); err != nil {
		log.WithError(err).Error("Recovery pass failed")
	}
}
