// Package outbox provides the in-process fire-and-forget task queue used for
// notification and email fan-out. Tasks run on a single background worker;
// failures are logged and dropped, never returned to the enqueuing caller,
// so side effects can never block or fail an authoritative write.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Outbox is a buffered single-worker task queue. It satisfies the app
// package's Dispatcher interface.
type Outbox struct {
	logger      *logrus.Logger
	tasks       chan job
	taskTimeout time.Duration
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

type job struct {
	name string
	run  func(ctx context.Context) error
}

const defaultBuffer = 256

// New starts the worker goroutine. taskTimeout bounds each task's context.
func New(logger *logrus.Logger, taskTimeout time.Duration) *Outbox {
	o := &Outbox{
		logger:      logger,
		tasks:       make(chan job, defaultBuffer),
		taskTimeout: taskTimeout,
	}
	o.wg.Add(1)
	go o.worker()
	return o
}

// Enqueue hands a task to the worker. When the buffer is full the task is
// dropped with a warning instead of blocking the caller; the queue carries
// best-effort side effects only.
func (o *Outbox) Enqueue(name string, task func(ctx context.Context) error) {
	select {
	case o.tasks <- job{name: name, run: task}:
	default:
		o.logger.Warnf("outbox: queue full, dropping task %q", name)
	}
}

func (o *Outbox) worker() {
	defer o.wg.Done()
	for j := range o.tasks {
		o.runOne(j)
	}
}

func (o *Outbox) runOne(j job) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorf("outbox: task %q panicked: %v", j.name, r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), o.taskTimeout)
	defer cancel()
	if err := j.run(ctx); err != nil {
		o.logger.Errorf("outbox: task %q failed: %v", j.name, err)
	}
}

// Close stops accepting tasks and waits for the worker to drain the queue.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		close(o.tasks)
	})
	o.wg.Wait()
}
