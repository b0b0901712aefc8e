package router

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/merlin-wf/merlin/spec"
	"github.com/merlin-wf/merlin/study"
)

func useLocalBackends(t *testing.T) {
	t.Helper()
	assert.NoError(t, InitBackends("local"))
	t.Cleanup(CloseBackends)
}

func TestInitBackendsUnknownServer(t *testing.T) {
	err := InitBackends("rabbitmq")
	assert.ErrorContains(t, err, "unsupported task server 'rabbitmq'")
}

const chainYAML = `
description: {name: chain, description: a chained study}
study:
  - name: first
    run: {cmd: echo one > one.txt}
  - name: second
    run: {cmd: echo two > two.txt, depends: [first]}
`

func TestRunStudyLocal(t *testing.T) {
	useLocalBackends(t)

	s, err := spec.Parse([]byte(chainYAML))
	assert.NoError(t, err)
	st, err := study.New(s, study.Options{OutputPath: t.TempDir()})
	assert.NoError(t, err)

	err = RunStudy(st, RunOptions{Local: true, Concurrency: 2, PollInterval: 10 * time.Millisecond})
	assert.NoError(t, err)

	one, err := ioutil.ReadFile(filepath.Join(st.Workspace, "first", "one.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "one\n", string(one))
	assert.FileExists(t, filepath.Join(st.Workspace, "second", "two.txt"))
	assert.True(t, study.StepFinished(filepath.Join(st.Workspace, "first")))
	assert.True(t, study.StepFinished(filepath.Join(st.Workspace, "second")))
}

func TestRunStudyDryRun(t *testing.T) {
	useLocalBackends(t)

	s, err := spec.Parse([]byte(chainYAML))
	assert.NoError(t, err)
	st, err := study.New(s, study.Options{OutputPath: t.TempDir(), DryRun: true})
	assert.NoError(t, err)

	assert.NoError(t, RunStudy(st, RunOptions{Local: true}))

	// Scripts written, nothing executed.
	assert.FileExists(t, filepath.Join(st.Workspace, "first", "first.sh"))
	assert.False(t, study.StepFinished(filepath.Join(st.Workspace, "first")))
}

func TestRunStudyFailingStepAborts(t *testing.T) {
	useLocalBackends(t)

	s, err := spec.Parse([]byte(`
description: {name: doomed, description: fails early}
study:
  - name: boom
    run: {cmd: exit 7}
  - name: never
    run: {cmd: echo unreachable > reached.txt, depends: [boom]}
`))
	assert.NoError(t, err)
	st, err := study.New(s, study.Options{OutputPath: t.TempDir()})
	assert.NoError(t, err)

	err = RunStudy(st, RunOptions{Local: true, PollInterval: 10 * time.Millisecond})
	assert.ErrorContains(t, err, "step 'boom' failed with return code 7")
	assert.NoFileExists(t, filepath.Join(st.Workspace, "never", "reached.txt"))
}

func TestRunStudySkipsFinishedSteps(t *testing.T) {
	useLocalBackends(t)

	s, err := spec.Parse([]byte(chainYAML))
	assert.NoError(t, err)
	st, err := study.New(s, study.Options{OutputPath: t.TempDir()})
	assert.NoError(t, err)

	// Pretend the first step already ran in a previous invocation.
	firstDir := filepath.Join(st.Workspace, "first")
	assert.NoError(t, os.MkdirAll(firstDir, 0755))
	assert.NoError(t, ioutil.WriteFile(filepath.Join(firstDir, study.FinishedMarker), nil, 0644))

	err = RunStudy(st, RunOptions{Local: true, PollInterval: 10 * time.Millisecond})
	assert.NoError(t, err)

	// The first step was not re-run, the second was.
	assert.NoFileExists(t, filepath.Join(firstDir, "one.txt"))
	assert.FileExists(t, filepath.Join(st.Workspace, "second", "two.txt"))
}
