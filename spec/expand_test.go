package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOverrideVars(t *testing.T) {
	vars, err := ParseOverrideVars([]string{"LEARN=path/to/new_learn.py", "EPOCHS=3"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"LEARN": "path/to/new_learn.py", "EPOCHS": "3"}, vars)
}

func TestParseOverrideVarsEmpty(t *testing.T) {
	vars, err := ParseOverrideVars(nil)
	assert.NoError(t, err)
	assert.Nil(t, vars)
}

func TestParseOverrideVarsErrors(t *testing.T) {
	cases := []struct {
		name string
		arg  string
	}{
		{"missing equals", "KEYval"},
		{"double equals", "KEY=a=b"},
		{"empty key", "=val"},
		{"dollar in key", "$KEY=val"},
		{"reserved word", "MERLIN_TIMESTAMP=now"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOverrideVars([]string{tc.arg})
			assert.Error(t, err)
		})
	}
}

func TestExpand(t *testing.T) {
	s, err := Parse([]byte(`
description: {name: exp, description: d}
env:
  variables:
    TARGET: world
    COUNT: 10
study:
  - name: greet
    run:
      cmd: echo "hello $(TARGET) x$(COUNT)"
      restart: echo "again $(TARGET)"
      task_queue: $(TARGET)_queue
`))
	assert.NoError(t, err)

	expanded, err := s.Expand(nil)
	assert.NoError(t, err)
	assert.Equal(t, `echo "hello world x10"`, expanded.Study[0].Run.Cmd)
	assert.Equal(t, `echo "again world"`, expanded.Study[0].Run.Restart)
	assert.Equal(t, "world_queue", expanded.Study[0].Run.TaskQueue)

	// The original spec is untouched.
	assert.Contains(t, s.Study[0].Run.Cmd, "$(TARGET)")
}

func TestExpandOverridesWin(t *testing.T) {
	s, err := Parse([]byte(`
description: {name: exp, description: d}
env:
  variables:
    TARGET: world
study:
  - name: greet
    run: {cmd: "echo $(TARGET)"}
`))
	assert.NoError(t, err)

	expanded, err := s.Expand(map[string]string{"TARGET": "mars"})
	assert.NoError(t, err)
	assert.Equal(t, "echo mars", expanded.Study[0].Run.Cmd)
}

func TestUnexpanded(t *testing.T) {
	assert.True(t, Unexpanded("$(WORKER_NAME)_suffix"))
	assert.False(t, Unexpanded("plain_worker"))
}
