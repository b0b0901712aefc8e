package router

import (
	"fmt"
	"strings"
	"time"

	merlin "github.com/merlin-wf/merlin"
	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/results"
)

// InitBackends wires the queue and results singletons for the given
// task server. "redis" talks to the configured servers, "local" keeps
// everything in process for --local runs and tests.
func InitBackends(taskServer string) error {
	switch taskServer {
	case "redis":
		host := merlin.Config.StringDefault("broker.redis.host", "localhost:6379")
		password := merlin.Config.StringDefault("broker.redis.password", "")
		queue.Instance = queue.NewRedisBroker(host, password)

		hosts := strings.Split(merlin.Config.StringDefault("results.memcached.hosts", "localhost:11211"), ",")
		results.Instance = results.NewMemcachedStore(hosts)
		return nil
	case "local":
		queue.Instance = queue.NewInMemoryBroker(time.Hour)
		results.Instance = results.NewInMemoryStore(time.Hour)
		return nil
	default:
		return fmt.Errorf("unsupported task server '%s' (options: redis, local)", taskServer)
	}
}

// CloseBackends shuts both singletons down.
func CloseBackends() {
	if queue.Instance != nil {
		queue.Instance.Close()
	}
	if results.Instance != nil {
		results.Instance.Close()
	}
}
