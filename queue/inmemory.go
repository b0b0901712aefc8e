package queue

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryBroker backs `--local` runs and tests. Queues live in a
// go-cache store so idle queues age out after a study finishes.
type InMemoryBroker struct {
	store *gocache.Cache
	mu    sync.Mutex
	cond  *sync.Cond

	consumers map[string]map[string]bool
}

// NewInMemoryBroker creates a broker whose idle queues expire after the
// given duration.
func NewInMemoryBroker(defaultExpiration time.Duration) *InMemoryBroker {
	b := &InMemoryBroker{
		store:     gocache.New(defaultExpiration, time.Minute),
		consumers: map[string]map[string]bool{},
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *InMemoryBroker) tasks(queue string) []*Task {
	if v, found := b.store.Get(queue); found {
		return v.([]*Task)
	}
	return nil
}

func (b *InMemoryBroker) Push(queue string, t *Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store.Set(queue, append(b.tasks(queue), t), gocache.DefaultExpiration)
	b.cond.Broadcast()
	return nil
}

func (b *InMemoryBroker) Pop(queue string, timeout time.Duration) (*Task, error) {
	deadline := time.Now().Add(timeout)

	// Wake periodically so waiters observe the deadline without a
	// push happening.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				b.cond.Broadcast()
			}
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		tasks := b.tasks(queue)
		if len(tasks) > 0 {
			t := tasks[0]
			b.store.Set(queue, tasks[1:], gocache.DefaultExpiration)
			return t, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrEmpty
		}
		b.cond.Wait()
	}
}

func (b *InMemoryBroker) Purge(queues []string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	purged := 0
	for _, q := range queues {
		purged += len(b.tasks(q))
		b.store.Delete(q)
	}
	return purged, nil
}

func (b *InMemoryBroker) Lengths(queues []string) (map[string]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lengths := make(map[string]int, len(queues))
	for _, q := range queues {
		lengths[q] = len(b.tasks(q))
	}
	return lengths, nil
}

func (b *InMemoryBroker) RegisterConsumer(queue, worker string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumers[queue] == nil {
		b.consumers[queue] = map[string]bool{}
	}
	b.consumers[queue][worker] = true
	return nil
}

func (b *InMemoryBroker) UnregisterConsumer(queue, worker string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.consumers[queue], worker)
	return nil
}

func (b *InMemoryBroker) Consumers(queue string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.consumers[queue]))
	for name := range b.consumers[queue] {
		names = append(names, name)
	}
	return names, nil
}

func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store.Flush()
	return nil
}
