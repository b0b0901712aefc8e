// Package monitor keeps a foreground process alive while a study runs,
// so batch allocations do not exit before the workers drain the queues.
package monitor

import (
	"fmt"
	"time"

	"github.com/merlin-wf/merlin/logger"
	"github.com/merlin-wf/merlin/queue"
)

var monitorLog = logger.New("module", "monitor")

// workerLostRetries is how many polls a populated queue may go without
// a registered consumer before the study is declared stalled. Workers
// may still be spinning up when monitoring starts.
const workerLostRetries = 10

// Options configures a Monitor.
type Options struct {
	// Sleep is the delay between queue polls.
	Sleep time.Duration
}

// Monitor polls the broker until the watched queues are drained.
type Monitor struct {
	broker queue.Broker
	queues []string
	sleep  time.Duration
}

func New(broker queue.Broker, queues []string, opts Options) *Monitor {
	if opts.Sleep <= 0 {
		opts.Sleep = 60 * time.Second
	}
	return &Monitor{broker: broker, queues: queues, sleep: opts.Sleep}
}

// Snapshot counts the waiting tasks and registered consumers across the
// watched queues.
func (m *Monitor) Snapshot() (jobs, consumers int, err error) {
	lengths, err := m.broker.Lengths(m.queues)
	if err != nil {
		return 0, 0, err
	}
	for _, n := range lengths {
		jobs += n
	}
	for _, q := range m.queues {
		names, err := m.broker.Consumers(q)
		if err != nil {
			return 0, 0, err
		}
		consumers += len(names)
	}
	return jobs, consumers, nil
}

// Wait blocks until every watched queue is empty. A queue that holds
// tasks with no consumer is given workerLostRetries polls to pick one
// up before Wait gives up with an error.
func (m *Monitor) Wait() error {
	missing := 0
	for {
		jobs, consumers, err := m.Snapshot()
		if err != nil {
			return err
		}
		monitorLog.Info("queue check", "jobs", jobs, "consumers", consumers)

		if jobs == 0 {
			monitorLog.Info("all queues drained")
			return nil
		}
		if consumers == 0 {
			missing++
			if missing > workerLostRetries {
				return fmt.Errorf("monitor: %d tasks waiting but no workers connected after %d checks", jobs, missing-1)
			}
		} else {
			missing = 0
		}
		time.Sleep(m.sleep)
	}
}
