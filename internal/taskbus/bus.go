// Package taskbus defines the boundary to the task-dispatch transport that
// moves ceremony steps between authorities. The transport itself (remote
// delivery, sender authentication, retries) lives outside this repository;
// here we only type its envelopes and provide an in-process bus for the
// local hops of a ceremony and for tests.
package taskbus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Task is one dispatchable unit of ceremony work.
type Task struct {
	ID         uuid.UUID
	Action     string
	ElectionID string
	// SenderCert is the certificate of the authority that dispatched the
	// task, as authenticated by the transport.
	SenderCert string
	Payload    json.RawMessage
}

// NewTask builds a task with a marshaled payload.
func NewTask(action, electionID, senderCert string, payload any) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal task payload")
	}

	return &Task{
		ID:         uuid.New(),
		Action:     action,
		ElectionID: electionID,
		SenderCert: senderCert,
		Payload:    data,
	}, nil
}

// Bind unmarshals the task payload into v.
func (t *Task) Bind(v any) error {
	return errors.Wrapf(json.Unmarshal(t.Payload, v), "bind payload of task %s", t.Action)
}

// HandlerFunc executes one ceremony step.
type HandlerFunc func(ctx context.Context, task *Task) error

// Dispatcher hands a task to the transport for execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *Task) error
}

// LocalBus executes tasks in-process on a single worker goroutine, in
// dispatch order. It serves the local follow-up hops of a ceremony; remote
// fan-out belongs to the real transport.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	closed   bool

	queue chan *Task
	wg    sync.WaitGroup
}

func NewLocalBus(buffer int) *LocalBus {
	b := &LocalBus{
		handlers: make(map[string]HandlerFunc),
		queue:    make(chan *Task, buffer),
	}

	b.wg.Add(1)
	go b.worker()

	return b
}

// Register binds an action name to its handler. Registration happens at
// startup, before any dispatch.
func (b *LocalBus) Register(action string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = handler
}

// Dispatch enqueues the task. A draining handler may still dispatch its
// follow-up while the bus shuts down; after Close that is an error, never a
// send on the closed queue.
func (b *LocalBus) Dispatch(_ context.Context, task *Task) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.Errorf("bus closed, refusing task %s", task.Action)
	}
	if _, ok := b.handlers[task.Action]; !ok {
		return errors.Errorf("no handler registered for action %s", task.Action)
	}

	b.queue <- task
	return nil
}

// Close stops accepting tasks and waits until queued ones finished.
func (b *LocalBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *LocalBus) worker() {
	defer b.wg.Done()

	for task := range b.queue {
		b.mu.RLock()
		handler := b.handlers[task.Action]
		b.mu.RUnlock()

		l := log.With().
			Stringer("task_id", task.ID).
			Str("action", task.Action).
			Str("election_id", task.ElectionID).
			Logger()

		if err := handler(l.WithContext(context.Background()), task); err != nil {
			// surfaced unchanged; whether to retry is the requester's call
			l.Error().Err(err).Msg("Task failed")
			continue
		}

		l.Debug().Msg("Task finished")
	}
}
