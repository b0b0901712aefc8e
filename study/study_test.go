package study

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/merlin-wf/merlin/spec"
)

const studyYAML = `
description: {name: demo, description: a demo study}
env:
  variables:
    GREETING: hello
study:
  - name: greet
    run: {cmd: "echo $(GREETING)"}
  - name: after
    run: {cmd: echo done, depends: [greet]}
`

func TestNewStudyWorkspace(t *testing.T) {
	dir := t.TempDir()
	s, err := spec.Parse([]byte(studyYAML))
	assert.NoError(t, err)

	ts := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	st, err := New(s, Options{OutputPath: dir, Timestamp: ts})
	assert.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "demo_20230405-060708"), st.Workspace)
	provenance := filepath.Join(st.Workspace, InfoDirName, "demo.expanded.yaml")
	assert.FileExists(t, provenance)

	// The provenance spec is the expanded one.
	data, err := ioutil.ReadFile(provenance)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "echo hello")
	assert.NotContains(t, string(data), "$(GREETING)")
}

func TestWriteStepScriptsDryRun(t *testing.T) {
	dir := t.TempDir()
	s, err := spec.Parse([]byte(studyYAML))
	assert.NoError(t, err)

	st, err := New(s, Options{OutputPath: dir, DryRun: true})
	assert.NoError(t, err)
	assert.NoError(t, st.WriteStepScripts())

	script := filepath.Join(st.Workspace, "greet", "greet.sh")
	data, err := ioutil.ReadFile(script)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "#!/bin/bash")
	assert.Contains(t, string(data), "echo hello")

	// Dry run: no finished markers anywhere.
	assert.False(t, StepFinished(filepath.Join(st.Workspace, "greet")))
}

func TestFindProvenanceSpec(t *testing.T) {
	dir := t.TempDir()

	_, err := FindProvenanceSpec(dir)
	assert.ErrorContains(t, err, "does not match any provenance spec")

	infoDir := filepath.Join(dir, InfoDirName)
	assert.NoError(t, os.MkdirAll(infoDir, 0755))
	one := filepath.Join(infoDir, "demo.expanded.yaml")
	assert.NoError(t, ioutil.WriteFile(one, []byte("x"), 0644))

	found, err := FindProvenanceSpec(dir)
	assert.NoError(t, err)
	assert.Equal(t, one, found)

	two := filepath.Join(infoDir, "other.expanded.yaml")
	assert.NoError(t, ioutil.WriteFile(two, []byte("y"), 0644))
	_, err = FindProvenanceSpec(dir)
	assert.ErrorContains(t, err, "more than one provenance spec")
}

func TestRestartReusesProvenance(t *testing.T) {
	dir := t.TempDir()
	s, err := spec.Parse([]byte(studyYAML))
	assert.NoError(t, err)

	st, err := New(s, Options{OutputPath: dir})
	assert.NoError(t, err)

	restarted, err := Restart(st.Workspace)
	assert.NoError(t, err)
	assert.Equal(t, "demo", restarted.Spec.Description.Name)
	assert.Len(t, restarted.Steps(), 2)
}
