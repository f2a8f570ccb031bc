package clustering

import (
	"context"
	"sync"

	"github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// Task is the handle of one accepted clustering run. Its terminal state is
// settled exactly once.
type Task struct {
	id         string
	researchID string

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	status research.Status
	err    error
}

func newTask(id, researchID string) *Task {
	return &Task{
		id:         id,
		researchID: researchID,
		done:       make(chan struct{}),
		status:     research.StatusProcessing,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// ResearchID returns the record the task clusters.
func (t *Task) ResearchID() string { return t.researchID }

// Done is closed once the terminal status has been written.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task settles or ctx ends. It returns the run error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns processing until the task settles, then completed or failed.
func (t *Task) Status() research.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the run error, nil while running or after success.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// settle runs write and records the outcome. Only the first call has any effect.
func (t *Task) settle(status research.Status, err error, write func()) bool {
	settled := false
	t.once.Do(func() {
		write()
		t.mu.Lock()
		t.status = status
		t.err = err
		t.mu.Unlock()
		close(t.done)
		settled = true
	})
	return settled
}
