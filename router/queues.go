package router

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/merlin-wf/merlin/queue"
	"github.com/merlin-wf/merlin/spec"
	"github.com/merlin-wf/merlin/status"
)

// PurgeTasks drops all waiting tasks from the queues used by the given
// steps. Unless force is set, the user is asked to confirm on in/out
// first; anything but y/yes cancels the purge.
func PurgeTasks(broker queue.Broker, s *spec.Spec, steps []string, force bool, in io.Reader, out io.Writer) (int, error) {
	queues, err := s.Queues(steps)
	if err != nil {
		return 0, err
	}
	if !force {
		fmt.Fprintf(out, "Purge all tasks from queues %s? [y/N] ", strings.Join(queues, ", "))
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Purge cancelled.")
			return 0, nil
		}
	}
	purged, err := broker.Purge(queues)
	if err != nil {
		return purged, err
	}
	routerLog.Info("Purged queues", "queues", strings.Join(queues, ","), "tasks", purged)
	return purged, nil
}

// QueryQueues reports task and consumer counts for the queues used by
// the given steps.
func QueryQueues(broker queue.Broker, s *spec.Spec, steps []string) ([]status.QueueInfo, error) {
	queues, err := s.Queues(steps)
	if err != nil {
		return nil, err
	}
	lengths, err := broker.Lengths(queues)
	if err != nil {
		return nil, err
	}
	info := make([]status.QueueInfo, 0, len(queues))
	for _, q := range queues {
		consumers, err := broker.Consumers(q)
		if err != nil {
			return nil, err
		}
		info = append(info, status.QueueInfo{Queue: q, Tasks: lengths[q], Consumers: len(consumers)})
	}
	return info, nil
}

// QueryWorkers lists the workers connected to each queue, optionally
// filtered by a regular expression on the worker name.
func QueryWorkers(broker queue.Broker, queues []string, pattern string) (map[string][]string, error) {
	filter, err := compileFilter(pattern)
	if err != nil {
		return nil, err
	}
	workers := map[string][]string{}
	for _, q := range queues {
		names, err := broker.Consumers(q)
		if err != nil {
			return nil, err
		}
		matched := []string{}
		for _, name := range names {
			if filter == nil || filter.MatchString(name) {
				matched = append(matched, name)
			}
		}
		workers[q] = matched
	}
	return workers, nil
}

// StopWorkers pushes one stop task per matching connected worker so
// each picks up exactly one and exits. Returns how many stop tasks
// were queued.
func StopWorkers(broker queue.Broker, queues []string, pattern string) (int, error) {
	workers, err := QueryWorkers(broker, queues, pattern)
	if err != nil {
		return 0, err
	}
	stopped := 0
	for q, names := range workers {
		for _, name := range names {
			if err := broker.Push(q, &queue.Task{ID: "stop-" + name, Stop: true}); err != nil {
				return stopped, err
			}
			stopped++
		}
	}
	if stopped == 0 {
		routerLog.Warn("No matching workers connected, nothing to stop")
	} else {
		routerLog.Info("Queued stop tasks", "count", stopped)
	}
	return stopped, nil
}

func compileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	filter, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad worker filter '%s': %w", pattern, err)
	}
	return filter, nil
}
