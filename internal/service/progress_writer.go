package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"manara/internal/quiz"
	"manara/internal/repository"
)

// ErrWriterClosed is returned when enqueueing after shutdown
var ErrWriterClosed = errors.New("progress writer closed")

// WriteIntent is one durable effect waiting to be merged into the
// progress record. Ack is invoked with the outcome; callers use it to
// mark local state unconfirmed and reconcile — failed writes are never
// retried automatically.
type WriteIntent struct {
	Patch *quiz.Patch
	Ack   func(error)
}

// ProgressWriter serializes progress writes through a single worker so
// overlapping effects for one user cannot race each other. Every write
// is acknowledged; nothing is fired and forgotten.
type ProgressWriter struct {
	repo    repository.ProgressRepo
	intents chan WriteIntent
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewProgressWriter creates a writer and starts its worker
func NewProgressWriter(repo repository.ProgressRepo, buffer int) *ProgressWriter {
	if buffer <= 0 {
		buffer = 64
	}
	w := &ProgressWriter{
		repo:    repo,
		intents: make(chan WriteIntent, buffer),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *ProgressWriter) run() {
	defer close(w.done)
	for intent := range w.intents {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.repo.Merge(ctx, intent.Patch)
		cancel()
		if err != nil {
			log.Printf("progress write failed for user %s: %v", intent.Patch.UserID, err)
		}
		if intent.Ack != nil {
			intent.Ack(err)
		}
	}
}

// Enqueue queues a patch for persistence. The ack callback may run on
// the worker goroutine.
func (w *ProgressWriter) Enqueue(patch *quiz.Patch, ack func(error)) error {
	if patch == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	w.intents <- WriteIntent{Patch: patch, Ack: ack}
	return nil
}

// Close drains the queue and stops the worker
func (w *ProgressWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.intents)
	w.mu.Unlock()
	<-w.done
}
