package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/navdoc/internal/config"
	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/source"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// Orchestrator serializes site reloads through a bounded queue and keeps the
// catalog current.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	src     source.Source
	catalog *Catalog
	stats   *LoadStats
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex // guards stopped and sends on queue
	stopped bool
}

func NewOrchestrator(cfg config.Config, src source.Source, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		src:     src,
		catalog: NewCatalog(),
		stats:   NewLoadStats(time.Hour),
		log:     log,
		cfg:     cfg,
	}
}

func (o *Orchestrator) loaderOptions() loader.Options {
	return loader.Options{
		Root:         o.cfg.Root,
		Strict:       o.cfg.Strict,
		Concurrency:  o.cfg.MaxConcurrentLoads,
		SymbolTables: o.cfg.SymbolTables,
		Discover:     o.cfg.Discover,
	}
}

// Start launches the workers and the background tickers.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.src, o.catalog, o.stats, o.log, o.loaderOptions())
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					metricQueueDepth.Set(float64(len(o.queue)))
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.every(workerCtx, 5*time.Minute, o.jobs.Cleanup)

	if o.cfg.ReloadInterval > 0 {
		o.every(workerCtx, o.cfg.ReloadInterval, func() {
			if _, err := o.Reload("interval"); err != nil {
				o.log.Warn("scheduled reload skipped", "error", err)
			}
		})
	}
}

func (o *Orchestrator) every(ctx context.Context, d time.Duration, fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop cancels running loads and waits for the workers. Jobs submitted
// afterwards fail with ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a job.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.AddError("orchestrator stopped")
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		metricQueueDepth.Set(float64(len(o.queue)))
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Reload queues a reload of the configured site.
func (o *Orchestrator) Reload(reason string) (*Job, error) {
	job := NewJob(reason, o.cfg.Site)
	if err := o.Submit(job); err != nil {
		return job, err
	}
	o.log.Info("reload queued", "job_id", job.ID, "reason", reason)
	return job, nil
}

func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Recent returns up to n jobs, newest first.
func (o *Orchestrator) Recent(n int) []*Job {
	return o.jobs.Recent(n)
}

func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) Catalog() *Catalog {
	return o.catalog
}

// LoadStats returns reload latencies and outcomes for the last hour.
func (o *Orchestrator) LoadStats() LoadStatsSnapshot {
	return o.stats.Snapshot()
}

// Source returns the source sites are loaded from.
func (o *Orchestrator) Source() source.Source {
	return o.src
}
