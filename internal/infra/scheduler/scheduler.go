package scheduler

import (
	"context"
	"sync"
	"time"

	"lexbrief/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each registered Job on its own ticker.
type Scheduler struct {
	jobs []Job
	log  *zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(logger *zerolog.Logger, jobs ...Job) *Scheduler {
	l := logger.With().Str("component", "scheduler").Logger()
	s := &Scheduler{log: &l}
	for _, j := range jobs {
		if j.Interval <= 0 {
			j.Interval = time.Minute
		}
		if j.Timeout <= 0 {
			j.Timeout = 30 * time.Second
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// Start begins one loop per job. Calling Start twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.log.Info().Str("job", j.Name).Dur("interval", j.Interval).Msg("scheduled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, j.Timeout)
			err := j.Run(runCtx)
			cancel()
			metrics.IncSchedulerRun(j.Name)
			if err != nil {
				s.log.Error().Err(err).Str("job", j.Name).Msg("job failed")
			}
		}
	}
}

// Stop cancels every loop and waits for them. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.log.Info().Msg("stopped")
}
