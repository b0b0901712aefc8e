package status

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/merlin-wf/merlin/study"
)

// fakeWorkspace lays out a study workspace with one step per state.
func fakeWorkspace(t *testing.T) string {
	t.Helper()
	workspace := t.TempDir()

	infoDir := filepath.Join(workspace, study.InfoDirName)
	assert.NoError(t, os.MkdirAll(infoDir, 0755))
	assert.NoError(t, ioutil.WriteFile(filepath.Join(infoDir, "demo.expanded.yaml"), []byte("x"), 0644))

	steps := map[string][]string{
		"finished": {study.FinishedMarker},
		"failed":   {study.FailedMarker},
		"running":  {"running.out"},
		"waiting":  {},
	}
	for step, files := range steps {
		dir := filepath.Join(workspace, step)
		assert.NoError(t, os.MkdirAll(dir, 0755))
		for _, f := range files {
			assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, f), nil, 0644))
		}
	}
	return workspace
}

func TestReadStates(t *testing.T) {
	workspace := fakeWorkspace(t)

	s, err := Read(workspace)
	assert.NoError(t, err)
	assert.Equal(t, "demo", s.Name)
	assert.Len(t, s.Steps, 4)

	states := map[string]StepState{}
	for _, step := range s.Steps {
		states[step.Step] = step.State
	}
	assert.Equal(t, map[string]StepState{
		"finished": StateFinished,
		"failed":   StateFailed,
		"running":  StateRunning,
		"waiting":  StateWaiting,
	}, states)
}

func TestReadRejectsNonWorkspace(t *testing.T) {
	_, err := Read(t.TempDir())
	assert.ErrorContains(t, err, "provenance spec")
}

func TestSummaryAndDone(t *testing.T) {
	s := &StudyStatus{Steps: []StepStatus{
		{Step: "a", State: StateFinished},
		{Step: "b", State: StateFinished},
		{Step: "c", State: StateFailed},
	}}
	assert.Equal(t, map[StepState]int{StateFinished: 2, StateFailed: 1}, s.Summary())
	assert.True(t, s.Done())

	s.Steps = append(s.Steps, StepStatus{Step: "d", State: StateRunning})
	assert.False(t, s.Done())

	empty := &StudyStatus{}
	assert.False(t, empty.Done())
}

func TestWriteTable(t *testing.T) {
	workspace := fakeWorkspace(t)
	s, err := Read(workspace)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "Study: demo")
	assert.Contains(t, out, "STEP")
	assert.Contains(t, out, "FINISHED")
	assert.Contains(t, out, "ago")
}

func TestDumpExtensionValidation(t *testing.T) {
	s := &StudyStatus{Name: "demo"}
	err := Dump(s, filepath.Join(t.TempDir(), "out.txt"))
	assert.ErrorContains(t, err, "must end in .csv or .json")
}

func TestDumpCSV(t *testing.T) {
	workspace := fakeWorkspace(t)
	s, err := Read(workspace)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "status.csv")
	assert.NoError(t, Dump(s, path))

	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "step,status,updated")
	assert.Contains(t, string(data), "finished,FINISHED")
}

func TestDumpJSON(t *testing.T) {
	workspace := fakeWorkspace(t)
	s, err := Read(workspace)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "status.json")
	assert.NoError(t, Dump(s, path))

	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	var decoded StudyStatus
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "demo", decoded.Name)
	assert.Len(t, decoded.Steps, 4)
}

func TestQueueInfoTableAndDump(t *testing.T) {
	info := []QueueInfo{
		{Queue: "simulate", Tasks: 3, Consumers: 1},
		{Queue: "collect", Tasks: 0, Consumers: 0},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteQueueInfo(&buf, info))
	assert.Contains(t, buf.String(), "QUEUE")
	assert.Contains(t, buf.String(), "simulate")

	path := filepath.Join(t.TempDir(), "queues.json")
	assert.NoError(t, DumpQueueInfo(info, path))
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	var decoded []QueueInfo
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, info, decoded)

	err = DumpQueueInfo(info, filepath.Join(t.TempDir(), "queues.yaml"))
	assert.ErrorContains(t, err, "must end in .csv or .json")
}
