// Package spec loads and validates merlin YAML study specifications.
package spec

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/merlin-wf/merlin/logger"
)

var specLog = logger.New("module", "spec")

// DefaultQueue is used when a step does not name a task queue.
const DefaultQueue = "merlin"

// Description identifies a study.
type Description struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Env carries user variables referenced from step commands as $(NAME).
type Env struct {
	Variables map[string]interface{} `yaml:"variables,omitempty"`
}

// Batch sets execution defaults for every step.
type Batch struct {
	Type  string `yaml:"type,omitempty"`
	Shell string `yaml:"shell,omitempty"`
}

// Run describes what a step executes. MaxRetries is a pointer so an
// explicit `max_retries: 0` (no retries) stays distinct from unset.
type Run struct {
	Cmd        string   `yaml:"cmd"`
	Restart    string   `yaml:"restart,omitempty"`
	Shell      string   `yaml:"shell,omitempty"`
	TaskQueue  string   `yaml:"task_queue,omitempty"`
	MaxRetries *int     `yaml:"max_retries,omitempty"`
	Depends    []string `yaml:"depends,omitempty"`
}

// Step is one entry under the study block.
type Step struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Run         Run    `yaml:"run"`
}

// Param is a global parameter; each value produces one expanded step copy.
type Param struct {
	Values []interface{} `yaml:"values"`
	Label  string        `yaml:"label"`
}

// WorkerDef configures a named worker in the merlin block.
type WorkerDef struct {
	Args  string   `yaml:"args,omitempty"`
	Steps []string `yaml:"steps,omitempty"`
}

// Resources selects the task server and the workers attached to steps.
type Resources struct {
	TaskServer string               `yaml:"task_server,omitempty"`
	Workers    map[string]WorkerDef `yaml:"workers,omitempty"`
}

// Samples points at a sample file whose rows feed sample expansion.
type Samples struct {
	File         string   `yaml:"file,omitempty"`
	ColumnLabels []string `yaml:"column_labels,omitempty"`
}

// Merlin is the merlin-specific block of a study spec.
type Merlin struct {
	Resources Resources `yaml:"resources,omitempty"`
	Samples   Samples   `yaml:"samples,omitempty"`
}

// Spec is a fully parsed study specification.
type Spec struct {
	Description Description      `yaml:"description"`
	Env         Env              `yaml:"env,omitempty"`
	Batch       Batch            `yaml:"batch,omitempty"`
	Study       []Step           `yaml:"study"`
	Globals     map[string]Param `yaml:"global.parameters,omitempty"`
	Merlin      Merlin           `yaml:"merlin,omitempty"`

	// Path the spec was loaded from, empty for parsed buffers.
	Path string `yaml:"-"`
}

// Load reads and parses a spec file.
func Load(path string) (*Spec, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spec: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("spec: parse %s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse decodes a spec from YAML bytes and validates it.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the structural invariants of the spec: a study name,
// at least one step, unique step names, non-empty commands and depends
// entries that name known steps.
func (s *Spec) Validate() error {
	if s.Description.Name == "" {
		return fmt.Errorf("spec is missing description.name")
	}
	if len(s.Study) == 0 {
		return fmt.Errorf("spec '%s' has no study steps", s.Description.Name)
	}

	seen := map[string]bool{}
	for _, step := range s.Study {
		if step.Name == "" {
			return fmt.Errorf("spec '%s' has a step without a name", s.Description.Name)
		}
		if seen[step.Name] {
			return fmt.Errorf("duplicate step name '%s'", step.Name)
		}
		seen[step.Name] = true
		if strings.TrimSpace(step.Run.Cmd) == "" {
			return fmt.Errorf("step '%s' has an empty cmd", step.Name)
		}
		if step.Run.MaxRetries != nil && *step.Run.MaxRetries < 0 {
			return fmt.Errorf("step '%s' has a negative max_retries", step.Name)
		}
	}
	for _, step := range s.Study {
		for _, dep := range step.Run.Depends {
			if !seen[dep] {
				return fmt.Errorf("step '%s' depends on unknown step '%s'", step.Name, dep)
			}
		}
	}
	return nil
}

// StepNames returns the study step names in spec order.
func (s *Spec) StepNames() []string {
	names := make([]string, 0, len(s.Study))
	for _, step := range s.Study {
		names = append(names, step.Name)
	}
	return names
}

// FindStep returns the named step, or nil.
func (s *Spec) FindStep(name string) *Step {
	for i := range s.Study {
		if s.Study[i].Name == name {
			return &s.Study[i]
		}
	}
	return nil
}

// Queues returns the distinct task queues used by the given steps,
// sorted. Steps "all" (or an empty list) selects every step.
func (s *Spec) Queues(steps []string) ([]string, error) {
	all := len(steps) == 0 || ContainsAll(steps)
	set := map[string]bool{}
	for _, step := range s.Study {
		if !all && !containsString(steps, step.Name) {
			continue
		}
		set[QueueName(step.Run.TaskQueue)] = true
	}
	if !all {
		for _, want := range steps {
			if s.FindStep(want) == nil {
				return nil, fmt.Errorf("no step named '%s' in spec '%s'", want, s.Description.Name)
			}
		}
	}
	queues := make([]string, 0, len(set))
	for q := range set {
		queues = append(queues, q)
	}
	sort.Strings(queues)
	return queues, nil
}

// WorkerNames lists the workers from the merlin resources block. When
// none are defined the default worker name is returned, since every spec
// can be serviced by the default worker.
func (s *Spec) WorkerNames() []string {
	if len(s.Merlin.Resources.Workers) == 0 {
		return []string{"default_worker"}
	}
	names := make([]string, 0, len(s.Merlin.Resources.Workers))
	for name := range s.Merlin.Resources.Workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TaskServer returns the configured task server, defaulting to redis.
func (s *Spec) TaskServer() string {
	if s.Merlin.Resources.TaskServer == "" {
		return "redis"
	}
	return s.Merlin.Resources.TaskServer
}

// QueueName normalizes a step's task queue. Empty and "none" map to the
// default queue.
func QueueName(queue string) string {
	if queue == "" || strings.EqualFold(queue, "none") {
		return DefaultQueue
	}
	return queue
}

// ContainsAll reports whether the step selector means "every step".
func ContainsAll(steps []string) bool {
	return containsString(steps, "all")
}

func containsString(list []string, target string) bool {
	for _, el := range list {
		if el == target {
			return true
		}
	}
	return false
}
