package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecoquest/bioblitz/internal/adapters/mq/queue"
	"github.com/ecoquest/bioblitz/internal/adapters/mq/worker"
	"github.com/ecoquest/bioblitz/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// memSink collects stored observations, deduplicating by observation ID the
// way the real store does.
type memSink struct {
	mu   sync.Mutex
	seen map[int64]bool
	errs int
	fail error
}

func newMemSink() *memSink {
	return &memSink{seen: make(map[int64]bool)}
}

func (s *memSink) Add(_ context.Context, obs model.Observation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		s.errs++
		return false, s.fail
	}
	if s.seen[obs.ID] {
		return false, nil
	}
	s.seen[obs.ID] = true
	return true, nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *memSink) errCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

func (s *memSink) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func eventFor(id int64) worker.Event {
	return worker.Event{
		EventID: "evt",
		Obs:     model.Observation{ID: id, UserLogin: "maria", ObservedOn: "2025-01-01"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a worker draining a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		sink := newMemSink()
		w := worker.NewWorker(q, sink, worker.WithName("test-worker"))

		runCtx, cancel := context.WithCancel(ctx)
		go w.Run(runCtx)
		Reset(func() {
			cancel()
			_ = q.Close()
		})

		Convey("When events are enqueued", func() {
			So(q.Enqueue(ctx, eventFor(1)), ShouldBeTrue)
			So(q.Enqueue(ctx, eventFor(2)), ShouldBeTrue)

			Convey("Then the sink should receive them", func() {
				waitFor(t, func() bool { return sink.count() == 2 })
				So(sink.count(), ShouldEqual, 2)
			})
		})

		Convey("When the same observation arrives twice", func() {
			So(q.Enqueue(ctx, eventFor(7)), ShouldBeTrue)
			So(q.Enqueue(ctx, eventFor(7)), ShouldBeTrue)

			Convey("Then the sink should store it once", func() {
				waitFor(t, func() bool { return q.Len(ctx) == 0 })
				waitFor(t, func() bool { return sink.count() == 1 })
				So(sink.count(), ShouldEqual, 1)
			})
		})

		Convey("When the sink fails", func() {
			sink.setFail(errors.New("disk full"))
			So(q.Enqueue(ctx, eventFor(9)), ShouldBeTrue)

			Convey("Then the worker should keep running", func() {
				waitFor(t, func() bool { return sink.errCount() == 1 })
				sink.setFail(nil)
				So(q.Enqueue(ctx, eventFor(10)), ShouldBeTrue)
				waitFor(t, func() bool { return sink.count() == 1 })
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		sink := newMemSink()
		w := worker.NewWorker(q, sink)
		go w.Run(ctx)

		Convey("When shutting it down", func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then it should stop cleanly", func() {
				So(w.Shutdown(sctx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		sink := newMemSink()
		pool := worker.NewPool(4, q, sink)

		runCtx, cancel := context.WithCancel(ctx)
		pool.Start(runCtx)
		Reset(func() {
			cancel()
			_ = q.Close()
		})

		Convey("When many events are enqueued", func() {
			for i := int64(1); i <= 50; i++ {
				So(q.Enqueue(ctx, eventFor(i)), ShouldBeTrue)
			}

			Convey("Then the pool should drain the queue", func() {
				waitFor(t, func() bool { return sink.count() == 50 })
				So(sink.count(), ShouldEqual, 50)
			})
		})

		Convey("When the pool is stopped", func() {
			pool.Stop()

			Convey("Then stopping should return promptly", func() {
				So(q.Enqueue(ctx, eventFor(99)), ShouldBeTrue)
				time.Sleep(50 * time.Millisecond)
				So(sink.count(), ShouldEqual, 0)
			})
		})
	})
}
