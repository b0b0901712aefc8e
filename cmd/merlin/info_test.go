package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	merlin "github.com/merlin-wf/merlin"
)

func TestInfoReport(t *testing.T) {
	t.Setenv("MERLIN_HOME", t.TempDir())
	assert.NoError(t, merlin.Init("error"))

	var buf bytes.Buffer
	writeInfo(&buf)
	out := buf.String()

	assert.Contains(t, out, "merlin version: "+merlin.Version)
	assert.Contains(t, out, merlin.ConfigFileName)
	assert.Contains(t, out, "broker: redis at localhost:6379")
	assert.Contains(t, out, "results: memcached at localhost:11211")
}
