// Package status inspects a study workspace and reports how far each
// step has progressed.
package status

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/merlin-wf/merlin/logger"
	"github.com/merlin-wf/merlin/study"
)

var statusLog = logger.New("module", "status")

// StepState is the terminal or in-flight state of one step workspace.
type StepState string

const (
	StateWaiting  StepState = "WAITING"
	StateRunning  StepState = "RUNNING"
	StateFinished StepState = "FINISHED"
	StateFailed   StepState = "FAILED"
)

// StepStatus describes one step directory inside a study workspace.
type StepStatus struct {
	Step     string
	State    StepState
	Modified time.Time
}

// StudyStatus is the full status report for one study workspace.
type StudyStatus struct {
	Name      string
	Workspace string
	Steps     []StepStatus
}

// Read builds the status report for a study workspace created by
// `merlin run`.
func Read(workspace string) (*StudyStatus, error) {
	provenance, err := study.FindProvenanceSpec(workspace)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(provenance), ".expanded.yaml")

	entries, err := ioutil.ReadDir(workspace)
	if err != nil {
		return nil, fmt.Errorf("status: read workspace %s: %w", workspace, err)
	}

	report := &StudyStatus{Name: name, Workspace: workspace}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == study.InfoDirName {
			continue
		}
		stepDir := filepath.Join(workspace, entry.Name())
		report.Steps = append(report.Steps, StepStatus{
			Step:     entry.Name(),
			State:    stateOf(stepDir, entry.Name()),
			Modified: lastModified(stepDir, entry.ModTime()),
		})
	}
	sort.Slice(report.Steps, func(i, j int) bool {
		return report.Steps[i].Step < report.Steps[j].Step
	})
	statusLog.Debug("Read study status", "study", name, "steps", len(report.Steps))
	return report, nil
}

// stateOf derives the step state from the files the workers leave
// behind in the step workspace.
func stateOf(stepDir, stepName string) StepState {
	if _, err := os.Stat(filepath.Join(stepDir, study.FinishedMarker)); err == nil {
		return StateFinished
	}
	if _, err := os.Stat(filepath.Join(stepDir, study.FailedMarker)); err == nil {
		return StateFailed
	}
	if _, err := os.Stat(filepath.Join(stepDir, stepName+".out")); err == nil {
		return StateRunning
	}
	return StateWaiting
}

func lastModified(stepDir string, fallback time.Time) time.Time {
	latest := fallback
	entries, err := ioutil.ReadDir(stepDir)
	if err != nil {
		return latest
	}
	for _, entry := range entries {
		if entry.ModTime().After(latest) {
			latest = entry.ModTime()
		}
	}
	return latest
}

// Summary counts the steps per state.
func (s *StudyStatus) Summary() map[StepState]int {
	counts := map[StepState]int{}
	for _, step := range s.Steps {
		counts[step.State]++
	}
	return counts
}

// Done reports whether every step reached a terminal state.
func (s *StudyStatus) Done() bool {
	for _, step := range s.Steps {
		if step.State != StateFinished && step.State != StateFailed {
			return false
		}
	}
	return len(s.Steps) > 0
}
