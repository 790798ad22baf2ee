// Package scheduler runs daily jobs at fixed wall-clock times. Jobs are
// deliberately staggered by their configured times; the scheduler itself
// provides no mutual exclusion between them.
package scheduler

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type Job struct {
	Name   string
	Hour   int
	Minute int
	Run    func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	logger zerolog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
		s.logger.Info().
			Str("job", job.Name).
			Int("hour", job.Hour).
			Int("minute", job.Minute).
			Msg("job scheduled")
	}
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	timer := time.NewTimer(untilNext(time.Now(), job.Hour, job.Minute))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		runID, err := gonanoid.New()
		if err != nil {
			runID = "unknown"
		}
		logger := s.logger.With().Str("job", job.Name).Str("run_id", runID).Logger()

		logger.Info().Msg("scheduled job starting")
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("scheduled job failed")
		} else {
			logger.Info().Dur("elapsed", time.Since(start)).Msg("scheduled job finished")
		}

		timer.Reset(untilNext(time.Now(), job.Hour, job.Minute))
	}
}

func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
