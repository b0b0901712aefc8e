package merlin

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}

func TestExistsAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	assert.NoError(t, ioutil.WriteFile(file, []byte("x"), 0644))

	assert.True(t, Exists(file))
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))

	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
}

func TestVerifyFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "spec.yaml")
	assert.NoError(t, ioutil.WriteFile(file, []byte("x"), 0644))

	abs, err := VerifyFilePath(file)
	assert.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = VerifyFilePath(dir)
	assert.ErrorContains(t, err, "is a directory")

	_, err = VerifyFilePath(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestReadLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lines.txt")
	assert.NoError(t, ioutil.WriteFile(file, []byte("one\ntwo\nthree"), 0644))

	lines, err := ReadLines(file)
	assert.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestCopyDirRendersTemplates(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	assert.NoError(t, os.MkdirAll(filepath.Join(src, "scripts"), 0755))
	assert.NoError(t, ioutil.WriteFile(filepath.Join(src, "plain.txt"), []byte("as is"), 0644))
	assert.NoError(t, ioutil.WriteFile(filepath.Join(src, "scripts", "conf.yaml.template"), []byte("name: {{.Name}}"), 0644))

	assert.NoError(t, CopyDir(dst, src, map[string]interface{}{"Name": "demo"}))

	plain, err := ioutil.ReadFile(filepath.Join(dst, "plain.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "as is", string(plain))

	rendered, err := ioutil.ReadFile(filepath.Join(dst, "scripts", "conf.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "name: demo", string(rendered))
	assert.False(t, Exists(filepath.Join(dst, "scripts", "conf.yaml.template")))
}

func TestHomeDirOverride(t *testing.T) {
	t.Setenv("MERLIN_HOME", "/tmp/custom-merlin-home")
	assert.Equal(t, "/tmp/custom-merlin-home", HomeDir())
}
