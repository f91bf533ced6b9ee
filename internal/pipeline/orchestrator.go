package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/config"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/history"
)

// Orchestrator schedules summarization runs over a bounded queue and a
// fixed pool of workers.
type Orchestrator struct {
	runs    *RunStore
	queue   chan *Run
	gen     Generator
	history *history.Store
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the run scheduler.
func NewOrchestrator(cfg config.Config, gen Generator, hist *history.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runs:    NewRunStore(cfg.RunTTL),
		queue:   make(chan *Run, cfg.MaxQueueSize),
		gen:     gen,
		history: hist,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.gen, o.history, o.log, o.cfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case run, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, run)
				}
			}
		}()
	}

	// Evict terminal runs that nobody polls anymore.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the scheduler.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new run for processing.
func (o *Orchestrator) Submit(run *Run) error {
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return nil
	default:
		err := fmt.Errorf("run queue is full (%d)", o.cfg.MaxQueueSize)
		run.Fail(KindInternal, err)
		return err
	}
}

// GetRun returns a run by ID, or nil.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// History returns the run recorder for direct use by API handlers.
func (o *Orchestrator) History() *history.Store {
	return o.history
}
