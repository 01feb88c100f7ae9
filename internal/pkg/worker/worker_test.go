package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyStore struct {
	mu       sync.Mutex
	failures map[string]int
	deleted  []string
	calls    map[string]int
}

func newFlakyStore(failures map[string]int) *flakyStore {
	return &flakyStore{failures: failures, calls: map[string]int{}}
}

func (s *flakyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	if s.failures[key] > 0 {
		s.failures[key]--
		return errors.New("storage unavailable")
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *flakyStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *flakyStore) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func TestWorkerPoolDeletesQueuedKeys(t *testing.T) {
	store := newFlakyStore(nil)
	p := NewWorkerPool(store, 2, 10, 3)
	p.Start()
	defer p.Stop()

	p.Enqueue("images/a.png", "", "documents/b.pdf")

	assert.Eventually(t, func() bool { return len(store.Deleted()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"images/a.png", "documents/b.pdf"}, store.Deleted())
}

func TestWorkerPoolRetriesThenSucceeds(t *testing.T) {
	store := newFlakyStore(map[string]int{"images/a.png": 2})
	p := NewWorkerPool(store, 1, 10, 3)
	p.Backoff = time.Millisecond
	p.Start()
	defer p.Stop()

	p.Enqueue("images/a.png")

	assert.Eventually(t, func() bool { return len(store.Deleted()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, store.Calls("images/a.png"))
}

func TestWorkerPoolDeadLettersAfterMaxRetry(t *testing.T) {
	store := newFlakyStore(map[string]int{"images/a.png": 100})
	p := NewWorkerPool(store, 1, 10, 2)
	p.Backoff = time.Millisecond

	dead := make(chan CleanupTask, 1)
	p.OnDeadLetter(func(task CleanupTask, err error) {
		assert.Error(t, err)
		dead <- task
	})
	p.Start()
	defer p.Stop()

	p.Enqueue("images/a.png")

	select {
	case task := <-dead:
		assert.Equal(t, "images/a.png", task.Key)
		assert.Equal(t, 2, task.Retry)
	case <-time.After(2 * time.Second):
		t.Fatal("task never reached dead letter")
	}
	assert.Equal(t, 3, store.Calls("images/a.png"))
	assert.Empty(t, store.Deleted())
}

func TestWorkerPoolQueueFullGoesToDeadLetter(t *testing.T) {
	p := NewWorkerPool(newFlakyStore(nil), 1, 2, 0)

	var mu sync.Mutex
	var dropped []string
	p.OnDeadLetter(func(task CleanupTask, _ error) {
		mu.Lock()
		dropped = append(dropped, task.Key)
		mu.Unlock()
	})

	// 未启动，队列容量为 2
	p.Enqueue("a", "b", "c")

	mu.Lock()
	assert.Equal(t, []string{"c"}, dropped)
	mu.Unlock()
}

func TestWorkerPoolReportsRemovedAfterRetry(t *testing.T) {
	store := newFlakyStore(map[string]int{"images/a.png": 1})
	p := NewWorkerPool(store, 1, 10, 3)
	p.Backoff = time.Millisecond

	removed := make(chan CleanupTask, 2)
	p.OnRemoved(func(task CleanupTask) { removed <- task })
	p.OnDeadLetter(func(task CleanupTask, err error) { t.Errorf("unexpected dead letter for %s: %v", task.Key, err) })
	p.Start()
	defer p.Stop()

	p.Enqueue("images/a.png")

	select {
	case task := <-removed:
		assert.Equal(t, "images/a.png", task.Key)
		assert.Equal(t, 1, task.Retry)
	case <-time.After(2 * time.Second):
		t.Fatal("removal never reported")
	}
	assert.Len(t, removed, 0)
}
