package router

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	merlin "github.com/merlin-wf/merlin"
)

const redisConfig = `# merlin configuration
app.name = merlin

log.output = stderr
log.colorize = true
log.maxsize = 10240
log.maxage = 14

# Task broker.
broker.redis.host = localhost:6379
broker.redis.password =
broker.redis.protocol = tcp
broker.redis.maxidle = 5
broker.redis.maxactive = 0
broker.redis.idletimeout = 240
broker.redis.timeout.connect = 10000
broker.redis.timeout.read = 5000
broker.redis.timeout.write = 5000

# Results backend.
results.memcached.hosts = localhost:11211
results.memcached.expiry = 86400
`

const localConfig = `# merlin configuration for local only runs
app.name = merlin

log.output = stderr
log.colorize = true
`

// CreateConfig writes an app.conf for the chosen broker type into dir
// (default: the merlin home directory). An existing config is left
// alone unless overwrite is set.
func CreateConfig(brokerType, dir string, overwrite bool) (string, error) {
	var content string
	switch brokerType {
	case "", "redis":
		content = redisConfig
	case "local":
		content = localConfig
	default:
		return "", fmt.Errorf("unsupported broker type '%s' (options: redis, local)", brokerType)
	}

	if dir == "" {
		dir = merlin.HomeDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, merlin.ConfigFileName)
	if merlin.Exists(path) && !overwrite {
		return "", fmt.Errorf("'%s' already exists, use --force to overwrite", path)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	routerLog.Info("Wrote configuration", "path", path, "broker", brokerType)
	return path, nil
}
