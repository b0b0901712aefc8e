package study

import (
	"fmt"
	"sort"

	"github.com/merlin-wf/merlin/spec"
)

// DAG orders study steps by their depends edges.
type DAG struct {
	steps   map[string]*Step
	depends map[string][]string
}

// NewDAG builds the dependency graph for a set of expanded steps.
// Depends entries name original spec steps; a dependency on step `a`
// is satisfied by every parameter expansion of `a`.
func NewDAG(steps []*Step, original *spec.Spec) (*DAG, error) {
	d := &DAG{
		steps:   make(map[string]*Step, len(steps)),
		depends: make(map[string][]string, len(steps)),
	}
	// Group expansions by the spec step they came from.
	bySource := map[string][]string{}
	for _, s := range steps {
		if _, dup := d.steps[s.Name]; dup {
			return nil, fmt.Errorf("duplicate expanded step name '%s'", s.Name)
		}
		d.steps[s.Name] = s
		source := sourceName(s.Name, original)
		bySource[source] = append(bySource[source], s.Name)
	}

	for _, s := range steps {
		source := sourceName(s.Name, original)
		srcStep := original.FindStep(source)
		if srcStep == nil {
			return nil, fmt.Errorf("expanded step '%s' has no source step", s.Name)
		}
		for _, dep := range srcStep.Run.Depends {
			d.depends[s.Name] = append(d.depends[s.Name], bySource[dep]...)
		}
	}

	if err := d.checkCycles(); err != nil {
		return nil, err
	}
	return d, nil
}

// sourceName maps an expanded step name back to its spec step.
func sourceName(name string, original *spec.Spec) string {
	if original.FindStep(name) != nil {
		return name
	}
	// Parameter expansions are named `<step>_<label>`; find the longest
	// spec step name that prefixes it.
	best := ""
	for _, s := range original.Study {
		prefix := s.Name + "_"
		if len(prefix) <= len(name) && name[:len(prefix)] == prefix && len(s.Name) > len(best) {
			best = s.Name
		}
	}
	return best
}

// Waves returns the steps grouped into dependency levels: every step in
// wave N depends only on steps in earlier waves. Step order inside a
// wave is sorted for determinism.
func (d *DAG) Waves() [][]*Step {
	remaining := make(map[string]bool, len(d.steps))
	for name := range d.steps {
		remaining[name] = true
	}

	var waves [][]*Step
	for len(remaining) > 0 {
		var names []string
		for name := range remaining {
			ready := true
			for _, dep := range d.depends[name] {
				if remaining[dep] {
					ready = false
					break
				}
			}
			if ready {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		wave := make([]*Step, 0, len(names))
		for _, name := range names {
			wave = append(wave, d.steps[name])
			delete(remaining, name)
		}
		waves = append(waves, wave)
	}
	return waves
}

// checkCycles rejects graphs where a step transitively depends on itself.
func (d *DAG) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(d.steps))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("dependency cycle through step '%s'", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range d.depends[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(d.steps))
	for name := range d.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
