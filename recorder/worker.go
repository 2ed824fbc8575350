package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
}

type delivery struct {
	data []byte
	msg  acker
}

type WorkerPool struct {
	jobs    chan delivery
	wg      sync.WaitGroup
	ctx     context.Context
	handler func(ctx context.Context, msg []byte) error
}

func NewWorkerPool(ctx context.Context, maxWorkers, queueSize int, handler func(ctx context.Context, msg []byte) error) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 2
	}
	if queueSize < 1 {
		queueSize = 100
	}

	// Handlers run under a context that outlives ctx so Stop can drain the queue.
	pool := &WorkerPool{
		jobs:    make(chan delivery, queueSize),
		ctx:     context.WithoutCancel(ctx),
		handler: handler,
	}

	for i := 0; i < maxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (w *WorkerPool) worker() {
	defer w.wg.Done()

	for job := range w.jobs {
		w.process(job)
	}
}

// process acks a handled message and naks a failed one so JetStream
// redelivers it.
func (w *WorkerPool) process(job delivery) {
	if err := w.handler(w.ctx, job.data); err != nil {
		slog.Error("failed to handle message", "err", err)
		if err := job.msg.Nak(); err != nil {
			slog.Error("failed to nak message", "err", err)
		}
		return
	}

	if err := job.msg.Ack(); err != nil {
		slog.Error("failed to ack message", "err", err)
	}
}

// Submit sends a message to the worker pool. Blocks if queue is full (backpressure).
// Returns false if context is cancelled.
func (w *WorkerPool) Submit(ctx context.Context, msg *nats.Msg) bool {
	return w.submit(ctx, delivery{data: msg.Data, msg: msg})
}

func (w *WorkerPool) submit(ctx context.Context, job delivery) bool {
	select {
	case w.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop closes the queue and waits for queued messages to finish. Submit must
// not be called afterwards.
func (w *WorkerPool) Stop() {
	close(w.jobs)
	w.wg.Wait()
}
