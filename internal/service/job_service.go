package service

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/availability"
	"carrental/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type JobStore interface {
	ActivateStartedBookings(ctx context.Context, today time.Time) (int64, error)
	CompleteFinishedBookings(ctx context.Context, today time.Time) (int64, error)
	ExpireStalePending(ctx context.Context, day time.Time) (int64, error)
}

// JobService moves bookings through their lifecycle on a schedule.
type JobService struct {
	Repo JobStore
	log  *zerolog.Logger
	now  func() time.Time
}

func NewJobService(repo JobStore, logger *zerolog.Logger) *JobService {
	return &JobService{Repo: repo, log: logger, now: time.Now}
}

// ActivateStartedBookings marks pending bookings whose rental has begun as active.
// They keep blocking the car until CompleteFinishedBookings retires them.
func (s *JobService) ActivateStartedBookings(ctx context.Context) error {
	n, err := s.Repo.ActivateStartedBookings(ctx, availability.DateOf(s.now().UTC()))
	metrics.IncJobRun("activate_started", err)
	if err != nil {
		return fmt.Errorf("cron job: failed to activate started bookings: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("cron job: bookings marked active")
	}
	return nil
}

// CompleteFinishedBookings marks active bookings whose last day has passed as completed.
func (s *JobService) CompleteFinishedBookings(ctx context.Context) error {
	n, err := s.Repo.CompleteFinishedBookings(ctx, availability.DateOf(s.now().UTC()))
	metrics.IncJobRun("complete_finished", err)
	if err != nil {
		return fmt.Errorf("cron job: failed to complete finished bookings: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("cron job: bookings marked completed")
	}
	return nil
}

// ExpireStalePending cancels pending bookings whose rental ended without ever
// being activated.
func (s *JobService) ExpireStalePending(ctx context.Context) error {
	n, err := s.Repo.ExpireStalePending(ctx, availability.DateOf(s.now().UTC()))
	metrics.IncJobRun("expire_pending", err)
	if err != nil {
		return fmt.Errorf("cron job: failed to expire pending bookings: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("cron job: stale pending bookings cancelled")
	}
	return nil
}

func (s *JobService) RunAll(ctx context.Context) {
	if err := s.ActivateStartedBookings(ctx); err != nil {
		s.log.Error().Err(err).Send()
	}
	if err := s.CompleteFinishedBookings(ctx); err != nil {
		s.log.Error().Err(err).Send()
	}
	if err := s.ExpireStalePending(ctx); err != nil {
		s.log.Error().Err(err).Send()
	}
}

// Start schedules RunAll with a cron spec such as "@every 1h". The caller
// stops the returned scheduler.
func (s *JobService) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunAll(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
