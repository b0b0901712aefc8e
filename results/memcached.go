package results

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/merlin-wf/merlin"
)

const resultKeyPrefix = "merlin:result:"

// MemcachedStore wraps the memcache client to meet the Store interface.
type MemcachedStore struct {
	client     *memcache.Client
	expiration time.Duration
}

// NewMemcachedStore connects to the given hosts. Results expire on the
// backend after results.memcached.expiry seconds so finished studies do
// not accumulate forever.
func NewMemcachedStore(hosts []string) *MemcachedStore {
	expiry := merlin.Config.IntDefault("results.memcached.expiry", 86400)
	return &MemcachedStore{
		client:     memcache.New(hosts...),
		expiration: time.Duration(expiry) * time.Second,
	}
}

func (s *MemcachedStore) Set(taskID string, r *StepResult) error {
	payload, err := Serialize(r)
	if err != nil {
		return err
	}
	return convertMemcacheError(s.client.Set(&memcache.Item{
		Key:        resultKeyPrefix + taskID,
		Value:      payload,
		Expiration: int32(s.expiration / time.Second),
	}))
}

func (s *MemcachedStore) Get(taskID string) (*StepResult, error) {
	item, err := s.client.Get(resultKeyPrefix + taskID)
	if err != nil {
		return nil, convertMemcacheError(err)
	}
	return Deserialize(item.Value)
}

func (s *MemcachedStore) Delete(taskID string) error {
	return convertMemcacheError(s.client.Delete(resultKeyPrefix + taskID))
}

func (s *MemcachedStore) Close() error {
	return nil
}

func convertMemcacheError(err error) error {
	switch err {
	case nil:
		return nil
	case memcache.ErrCacheMiss:
		return ErrNotFound
	}

	resultsLog.Error("memcached error", "error", err)
	return err
}
