// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"lexbrief/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var (
	ErrNilTask   = errors.New("nil task")
	ErrQueueFull = errors.New("worker queue full")
)

type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool runs post-request side effects off the request path.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan job
	quit chan struct{}
	stop sync.Once
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := logger.With().Str("component", "worker_pool").Logger()
	return &Pool{jobs: make(chan job, workers*4), quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case j := <-p.jobs:
					p.run(ctx, id, j)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncWorkerJob(j.name, "failed")
			p.log.Error().Int("worker", id).Str("job", j.name).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := j.run(ctx); err != nil {
		metrics.IncWorkerJob(j.name, "failed")
		p.log.Error().Err(err).Int("worker", id).Str("job", j.name).Msg("task error")
		return
	}
	metrics.IncWorkerJob(j.name, "ok")
}

// Stop signals the workers and waits for them. Queued tasks not yet picked up are dropped.
func (p *Pool) Stop() {
	p.stop.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit never blocks: a saturated queue drops the task.
func (p *Pool) Submit(name string, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	select {
	case p.jobs <- job{name: name, run: task}:
		return nil
	default:
		metrics.IncWorkerJob(name, "dropped")
		return ErrQueueFull
	}
}
