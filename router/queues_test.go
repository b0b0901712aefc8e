package router

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/spec"
	"github.com/merlin-wf/merlin/status"
)

const queuesYAML = `
description: {name: demo, description: queue demo}
study:
  - name: simulate
    run: {cmd: echo sim, task_queue: simqueue}
  - name: collect
    run: {cmd: echo col, task_queue: colqueue, depends: [simulate]}
`

func testBrokerWithTasks(t *testing.T) (*queue.InMemoryBroker, *spec.Spec) {
	t.Helper()
	broker := queue.NewInMemoryBroker(time.Hour)
	t.Cleanup(func() { broker.Close() })

	s, err := spec.Parse([]byte(queuesYAML))
	assert.NoError(t, err)

	assert.NoError(t, broker.Push("simqueue", &queue.Task{ID: "t1"}))
	assert.NoError(t, broker.Push("simqueue", &queue.Task{ID: "t2"}))
	assert.NoError(t, broker.Push("colqueue", &queue.Task{ID: "t3"}))
	return broker, s
}

func TestPurgeTasksForce(t *testing.T) {
	broker, s := testBrokerWithTasks(t)

	purged, err := PurgeTasks(broker, s, nil, true, strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, err)
	assert.Equal(t, 3, purged)
}

func TestPurgeTasksConfirmYes(t *testing.T) {
	broker, s := testBrokerWithTasks(t)

	var out bytes.Buffer
	purged, err := PurgeTasks(broker, s, nil, false, strings.NewReader("y\n"), &out)
	assert.NoError(t, err)
	assert.Equal(t, 3, purged)
	assert.Contains(t, out.String(), "colqueue, simqueue")
}

func TestPurgeTasksConfirmNo(t *testing.T) {
	broker, s := testBrokerWithTasks(t)

	var out bytes.Buffer
	purged, err := PurgeTasks(broker, s, nil, false, strings.NewReader("n\n"), &out)
	assert.NoError(t, err)
	assert.Equal(t, 0, purged)
	assert.Contains(t, out.String(), "cancelled")

	lengths, err := broker.Lengths([]string{"simqueue"})
	assert.NoError(t, err)
	assert.Equal(t, 2, lengths["simqueue"])
}

func TestPurgeTasksStepSelection(t *testing.T) {
	broker, s := testBrokerWithTasks(t)

	purged, err := PurgeTasks(broker, s, []string{"simulate"}, true, strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, err)
	assert.Equal(t, 2, purged)

	_, err = PurgeTasks(broker, s, []string{"nosuch"}, true, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorContains(t, err, "no step named 'nosuch'")
}

func TestQueryQueues(t *testing.T) {
	broker, s := testBrokerWithTasks(t)
	assert.NoError(t, broker.RegisterConsumer("simqueue", "default_worker-1"))

	info, err := QueryQueues(broker, s, nil)
	assert.NoError(t, err)
	assert.Equal(t, []status.QueueInfo{
		{Queue: "colqueue", Tasks: 1, Consumers: 0},
		{Queue: "simqueue", Tasks: 2, Consumers: 1},
	}, info)
}

func TestQueryWorkersFilter(t *testing.T) {
	broker, _ := testBrokerWithTasks(t)
	assert.NoError(t, broker.RegisterConsumer("simqueue", "sim_worker-1"))
	assert.NoError(t, broker.RegisterConsumer("simqueue", "other_worker-2"))

	workers, err := QueryWorkers(broker, []string{"simqueue"}, "^sim_")
	assert.NoError(t, err)
	assert.Equal(t, []string{"sim_worker-1"}, workers["simqueue"])

	_, err = QueryWorkers(broker, []string{"simqueue"}, "(")
	assert.ErrorContains(t, err, "bad worker filter")
}

func TestStopWorkers(t *testing.T) {
	broker, _ := testBrokerWithTasks(t)
	assert.NoError(t, broker.RegisterConsumer("simqueue", "sim_worker-1"))
	assert.NoError(t, broker.RegisterConsumer("simqueue", "sim_worker-2"))

	stopped, err := StopWorkers(broker, []string{"simqueue"}, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, stopped)

	// The stop tasks are queued behind the existing ones.
	lengths, err := broker.Lengths([]string{"simqueue"})
	assert.NoError(t, err)
	assert.Equal(t, 4, lengths["simqueue"])
}

func TestStopWorkersNoneConnected(t *testing.T) {
	broker, _ := testBrokerWithTasks(t)

	stopped, err := StopWorkers(broker, []string{"simqueue"}, "")
	assert.NoError(t, err)
	assert.Equal(t, 0, stopped)
}
