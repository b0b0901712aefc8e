package queue

import (
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/merlin-wf/merlin"
)

const (
	taskKeyPrefix     = "merlin:queue:"
	consumerKeyPrefix = "merlin:consumers:"
)

// RedisBroker carries tasks through redis lists, one list per queue.
type RedisBroker struct {
	pool *redis.Pool
}

// NewRedisBroker builds a connection pool against the configured broker
// host. Until redigo supports sharding/clustering, only one host is used.
func NewRedisBroker(host, password string) *RedisBroker {
	pool := &redis.Pool{
		MaxIdle:     merlin.Config.IntDefault("broker.redis.maxidle", 5),
		MaxActive:   merlin.Config.IntDefault("broker.redis.maxactive", 0),
		IdleTimeout: time.Duration(merlin.Config.IntDefault("broker.redis.idletimeout", 240)) * time.Second,
		Dial: func() (redis.Conn, error) {
			protocol := merlin.Config.StringDefault("broker.redis.protocol", "tcp")
			toc := time.Millisecond * time.Duration(merlin.Config.IntDefault("broker.redis.timeout.connect", 10000))
			tor := time.Millisecond * time.Duration(merlin.Config.IntDefault("broker.redis.timeout.read", 5000))
			tow := time.Millisecond * time.Duration(merlin.Config.IntDefault("broker.redis.timeout.write", 5000))
			c, err := redis.Dial(protocol, host,
				redis.DialConnectTimeout(toc),
				redis.DialReadTimeout(tor),
				redis.DialWriteTimeout(tow))
			if err != nil {
				return nil, err
			}
			if len(password) > 0 {
				if _, err := c.Do("AUTH", password); err != nil {
					c.Close()
					return nil, err
				}
			} else {
				// check with PING
				if _, err := c.Do("PING"); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, err
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
	return &RedisBroker{pool: pool}
}

func (b *RedisBroker) Push(queue string, t *Task) error {
	conn := b.pool.Get()
	defer conn.Close()
	payload, err := Serialize(t)
	if err != nil {
		return err
	}
	_, err = conn.Do("LPUSH", taskKeyPrefix+queue, payload)
	return err
}

func (b *RedisBroker) Pop(queue string, timeout time.Duration) (*Task, error) {
	conn := b.pool.Get()
	defer conn.Close()
	// BRPOP blocks; a zero timeout would wait forever, so floor at 1s.
	seconds := int(timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	reply, err := redis.Values(conn.Do("BRPOP", taskKeyPrefix+queue, seconds))
	if err == redis.ErrNil {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	payload, err := redis.Bytes(reply[1], nil)
	if err != nil {
		return nil, err
	}
	return Deserialize(payload)
}

func (b *RedisBroker) Purge(queues []string) (int, error) {
	conn := b.pool.Get()
	defer conn.Close()
	purged := 0
	for _, q := range queues {
		length, err := redis.Int(conn.Do("LLEN", taskKeyPrefix+q))
		if err != nil {
			return purged, err
		}
		if _, err := conn.Do("DEL", taskKeyPrefix+q); err != nil {
			return purged, err
		}
		purged += length
	}
	return purged, nil
}

func (b *RedisBroker) Lengths(queues []string) (map[string]int, error) {
	conn := b.pool.Get()
	defer conn.Close()
	lengths := make(map[string]int, len(queues))
	for _, q := range queues {
		length, err := redis.Int(conn.Do("LLEN", taskKeyPrefix+q))
		if err != nil {
			return nil, err
		}
		lengths[q] = length
	}
	return lengths, nil
}

func (b *RedisBroker) RegisterConsumer(queue, worker string) error {
	conn := b.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SADD", consumerKeyPrefix+queue, worker)
	return err
}

func (b *RedisBroker) UnregisterConsumer(queue, worker string) error {
	conn := b.pool.Get()
	defer conn.Close()
	_, err := conn.Do("SREM", consumerKeyPrefix+queue, worker)
	return err
}

func (b *RedisBroker) Consumers(queue string) ([]string, error) {
	conn := b.pool.Get()
	defer conn.Close()
	return redis.Strings(conn.Do("SMEMBERS", consumerKeyPrefix+queue))
}

func (b *RedisBroker) Close() error {
	return b.pool.Close()
}
