package worker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/merlin-wf/merlin/spec"
)

// LaunchCommands builds the `merlin run-workers` invocation for each
// requested worker from the spec's merlin resources block. An empty
// workers list selects every defined worker. These strings are printed
// by `merlin run-workers --echo` for batch scripts to run verbatim, so
// every flag precedes the trailing spec path.
func LaunchCommands(s *spec.Spec, workers []string) ([]string, error) {
	defined := s.Merlin.Resources.Workers

	if len(workers) == 0 {
		workers = s.WorkerNames()
	} else {
		for _, name := range workers {
			if _, ok := defined[name]; !ok && len(defined) > 0 {
				return nil, fmt.Errorf("worker '%s' is not defined in spec '%s'", name, s.Description.Name)
			}
		}
		sort.Strings(workers)
	}

	commands := make([]string, 0, len(workers))
	for _, name := range workers {
		def := defined[name]
		queues, err := s.Queues(def.Steps)
		if err != nil {
			return nil, err
		}
		cmd := fmt.Sprintf("merlin run-workers --worker %s --queues %s", name, strings.Join(queues, ","))
		if def.Args != "" {
			cmd += " " + def.Args
		}
		if s.Path != "" {
			cmd += " " + s.Path
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}
