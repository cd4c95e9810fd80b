// Package worker defines the ingest workers that drain the event queue
// into the observation store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/logger"
	"github.com/ecoquest/bioblitz/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Event is what workers read off the queue.
type Event = model.Event

// Sink receives validated observations.
type Sink interface {
	Add(ctx context.Context, obs model.Observation) (bool, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker drains events from the queue into the sink until stopped.
type Worker struct {
	queue Queue
	sink  Sink
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's name, used for log attribution.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// NewWorker creates a new ingest worker.
func NewWorker(queue Queue, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop; it returns when the context is canceled, the
// worker is shut down, or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent stores one observation, recording ingest metrics.
func (w *Worker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	added, err := w.sink.Add(ctx, event.Obs)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "store rejected observation",
			logger.String("eventID", event.EventID),
			logger.Int64("observationID", event.Obs.ID),
			logger.Error(err),
		)
		return fmt.Errorf("store observation %d: %w", event.Obs.ID, err)
	}
	if !added {
		// Same observation id arrived under a different event id.
		metrics.RecordObservationDuplicate()
		w.logger.Debug(ctx, "observation already stored",
			logger.Int64("observationID", event.Obs.ID),
		)
		return nil
	}

	metrics.RecordObservationIngested()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker

	logger logger.Logger
}

// NewPool creates a pool of workerCount ingest workers.
func NewPool(workerCount int, queue Queue, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(queue, sink, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerActive(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers, waiting up to the shutdown timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop in time", logger.Error(err))
		}
	}
	metrics.UpdateWorkerActive(0)
}
