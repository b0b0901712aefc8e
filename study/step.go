// Package study expands a spec into executable steps and manages the
// study workspace on disk.
package study

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/merlin-wf/merlin/logger"
	"github.com/merlin-wf/merlin/spec"
)

var studyLog = logger.New("module", "study")

// DefaultMaxRetries applies when a step does not set run.max_retries.
const DefaultMaxRetries = 30

// Sample keywords that trigger sample expansion when referenced from a
// step command.
var sampleKeywords = []string{
	"MERLIN_SAMPLE_ID", "MERLIN_SAMPLE_PATH",
	"merlin_sample_id", "merlin_sample_path",
}

// Step is an executable unit of a study: a spec step bound to the
// workspace directory it will run in.
type Step struct {
	spec.Step
	Workspace string
}

// NewStep binds a spec step to a workspace directory.
func NewStep(s spec.Step, workspace string) *Step {
	return &Step{Step: s, Workspace: workspace}
}

// Cmd returns the run command text body.
func (s *Step) Cmd() string {
	return s.Run.Cmd
}

// RestartCmd returns the restart command text body, or "" when the step
// has none.
func (s *Step) RestartCmd() string {
	return s.Run.Restart
}

// TaskQueue retrieves the task queue for the step, defaulting when unset.
func (s *Step) TaskQueue() string {
	return spec.QueueName(s.Run.TaskQueue)
}

// MaxRetries returns the retry budget for this step. Steps that set
// max_retries keep their value, zero included; the rest get the default.
func (s *Step) MaxRetries() int {
	if s.Run.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *s.Run.MaxRetries
}

// Clone produces a copy of the step, substituting command text according
// to the replacement pairs as it goes. Replacement is case insensitive,
// matching how variables appear in either case inside user commands.
func (s *Step) Clone(replacements [][2]string, newWorkspace string) *Step {
	cloned := *s
	for _, pair := range replacements {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(pair[0]))
		cloned.Run.Cmd = re.ReplaceAllLiteralString(cloned.Run.Cmd, pair[1])
		if cloned.Run.Restart != "" {
			cloned.Run.Restart = re.ReplaceAllLiteralString(cloned.Run.Restart, pair[1])
		}
	}
	if newWorkspace != "" {
		cloned.Workspace = newWorkspace
	}
	studyLog.Debug("Cloned step", "step", s.Name, "workspace", cloned.Workspace)
	return &cloned
}

// UsesParams reports whether the step command references any of the
// given global parameters.
func (s *Step) UsesParams(params map[string]spec.Param) bool {
	for name := range params {
		if strings.Contains(s.Cmd(), "$("+name+")") {
			return true
		}
	}
	return false
}

// NeedsSampleExpansion reports whether the cmd or restart cmd references
// a sample keyword or one of the spec's sample column labels.
func (s *Step) NeedsSampleExpansion(labels []string) bool {
	for _, label := range append(append([]string{}, labels...), sampleKeywords...) {
		if strings.Contains(s.Cmd(), "$("+label+")") {
			return true
		}
		if restart := s.RestartCmd(); restart != "" && strings.Contains(restart, "$("+label+")") {
			return true
		}
	}
	return false
}

// ExpandParams returns one copy of the step per parameter value, named
// `<step>_<label>` with `%%` in each label replaced by the value. Steps
// that reference no parameter come back unchanged as a single entry.
// Every parameter must provide the same number of values.
func (s *Step) ExpandParams(params map[string]spec.Param) ([]*Step, error) {
	if len(params) == 0 || !s.UsesParams(params) {
		return []*Step{s}, nil
	}

	names := make([]string, 0, len(params))
	numValues := -1
	for name, param := range params {
		names = append(names, name)
		if numValues == -1 {
			numValues = len(param.Values)
		} else if len(param.Values) != numValues {
			return nil, fmt.Errorf("global parameters disagree on value counts (%d vs %d)", numValues, len(param.Values))
		}
	}
	sort.Strings(names)

	expanded := make([]*Step, 0, numValues)
	for i := 0; i < numValues; i++ {
		label := make([]string, 0, len(names))
		replacements := make([][2]string, 0, len(names))
		for _, name := range names {
			param := params[name]
			value := fmt.Sprint(param.Values[i])
			replacements = append(replacements, [2]string{"$(" + name + ")", value})
			label = append(label, strings.ReplaceAll(param.Label, "%%", value))
		}
		copyStep := s.Clone(replacements, "")
		copyStep.Name = s.Name + "_" + strings.Join(label, ".")
		expanded = append(expanded, copyStep)
	}
	return expanded, nil
}
