package study

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/merlin-wf/merlin/spec"
)

const (
	// InfoDirName holds provenance copies of the spec inside a workspace.
	InfoDirName = "merlin_info"

	// FinishedMarker is written to a step workspace when the step succeeds.
	FinishedMarker = "MERLIN_FINISHED"

	// FailedMarker is written when a step exhausts its retries.
	FailedMarker = "MERLIN_FAILED"

	timestampFormat = "20060102-150405"
)

// Options control study construction.
type Options struct {
	// OverrideVars replaces env variables during expansion.
	OverrideVars map[string]string

	// OutputPath overrides the parent directory for the workspace.
	// Defaults to the current working directory.
	OutputPath string

	// DryRun sets up the workspace and step scripts without marking the
	// study runnable.
	DryRun bool

	// Timestamp pins the workspace timestamp; zero means now.
	Timestamp time.Time
}

// Study is an expanded spec with a workspace on disk.
type Study struct {
	Spec      *spec.Spec // expanded
	Original  *spec.Spec
	Workspace string
	DryRun    bool

	steps []*Step
	dag   *DAG
}

// New expands the spec, creates the timestamped workspace with its
// provenance copy, and prepares the executable steps.
func New(s *spec.Spec, opts Options) (*Study, error) {
	expanded, err := s.Expand(opts.OverrideVars)
	if err != nil {
		return nil, err
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	parent := opts.OutputPath
	if parent == "" {
		parent = "."
	}
	workspace := filepath.Join(parent, fmt.Sprintf("%s_%s", expanded.Description.Name, ts.Format(timestampFormat)))

	st := &Study{
		Spec:      expanded,
		Original:  s,
		Workspace: workspace,
		DryRun:    opts.DryRun,
	}
	if err := st.setupWorkspace(); err != nil {
		return nil, err
	}
	if err := st.expandSteps(); err != nil {
		return nil, err
	}
	studyLog.Info("Study workspace created", "study", expanded.Description.Name, "workspace", workspace)
	return st, nil
}

// Restart reopens a study from an existing workspace using its
// provenance spec. Steps that already carry a finished marker keep it,
// so only unfinished work is re-queued by the router.
func Restart(workspace string) (*Study, error) {
	provenance, err := FindProvenanceSpec(workspace)
	if err != nil {
		return nil, err
	}
	s, err := spec.Load(provenance)
	if err != nil {
		return nil, err
	}
	st := &Study{Spec: s, Original: s, Workspace: workspace}
	if err := st.expandSteps(); err != nil {
		return nil, err
	}
	return st, nil
}

// FindProvenanceSpec locates the single expanded provenance spec inside
// a workspace. Zero or multiple matches are errors.
func FindProvenanceSpec(workspace string) (string, error) {
	pattern := filepath.Join(workspace, InfoDirName, "*.expanded.yaml")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("'%s' does not match any provenance spec file to restart from", pattern)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("'%s' matches more than one provenance spec file to restart from", pattern)
	}
	return matches[0], nil
}

func (st *Study) setupWorkspace() error {
	infoDir := filepath.Join(st.Workspace, InfoDirName)
	if err := os.MkdirAll(infoDir, 0755); err != nil {
		return fmt.Errorf("study: create workspace: %w", err)
	}

	data, err := yaml.Marshal(st.Spec)
	if err != nil {
		return fmt.Errorf("study: marshal provenance spec: %w", err)
	}
	provenance := filepath.Join(infoDir, st.Spec.Description.Name+".expanded.yaml")
	if err := ioutil.WriteFile(provenance, data, 0644); err != nil {
		return fmt.Errorf("study: write provenance spec: %w", err)
	}
	return nil
}

func (st *Study) expandSteps() error {
	var steps []*Step
	for _, specStep := range st.Spec.Study {
		step := NewStep(specStep, "")
		copies, err := step.ExpandParams(st.Spec.Globals)
		if err != nil {
			return err
		}
		for _, c := range copies {
			c.Workspace = filepath.Join(st.Workspace, c.Name)
			steps = append(steps, c)
		}
	}
	dag, err := NewDAG(steps, st.Spec)
	if err != nil {
		return err
	}
	st.steps = steps
	st.dag = dag
	return nil
}

// Steps returns all expanded steps.
func (st *Study) Steps() []*Step {
	return st.steps
}

// Waves returns the steps in dependency order.
func (st *Study) Waves() [][]*Step {
	return st.dag.Waves()
}

// WriteStepScripts creates each step's workspace directory and writes
// its command script. A dry run stops here: no MERLIN_FINISHED file, no
// .out or .err logs.
func (st *Study) WriteStepScripts() error {
	for _, step := range st.steps {
		if err := os.MkdirAll(step.Workspace, 0755); err != nil {
			return fmt.Errorf("study: create step workspace %s: %w", step.Workspace, err)
		}
		shell := step.Run.Shell
		if shell == "" {
			shell = st.Spec.Batch.Shell
		}
		if shell == "" {
			shell = "/bin/bash"
		}
		script := fmt.Sprintf("#!%s\n\n%s\n", shell, step.Cmd())
		path := filepath.Join(step.Workspace, step.Name+".sh")
		if err := ioutil.WriteFile(path, []byte(script), 0755); err != nil {
			return fmt.Errorf("study: write step script %s: %w", path, err)
		}
	}
	return nil
}

// StepFinished reports whether the step's workspace carries a finished
// marker.
func StepFinished(workspace string) bool {
	_, err := os.Stat(filepath.Join(workspace, FinishedMarker))
	return err == nil
}
