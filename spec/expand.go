package spec

import (
	"fmt"
	"regexp"
	"strings"
)

// Reserved variable names that users may not override. They are filled in
// by merlin itself while a study runs.
var Reserved = []string{
	"SPECROOT",
	"OUTPUT_PATH",
	"MERLIN_TIMESTAMP",
	"MERLIN_INFO",
	"MERLIN_WORKSPACE",
	"MERLIN_SAMPLE_ID",
	"MERLIN_SAMPLE_PATH",
	"MERLIN_SUCCESS",
	"MERLIN_RESTART",
	"MERLIN_SOFT_FAIL",
	"MERLIN_HARD_FAIL",
	"MERLIN_RETRY",
	"WORKSPACE",
}

var varNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseOverrideVars parses KEY=val pairs given with --vars into a map.
// Keys must be plain identifiers and must not shadow reserved words.
func ParseOverrideVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	specLog.Debug("Parsing override variables", "vars", strings.Join(pairs, " "))
	result := make(map[string]string, len(pairs))
	for _, arg := range pairs {
		if !strings.Contains(arg, "=") {
			return nil, fmt.Errorf("--vars requires '=' operator, got '%s'. See 'merlin run --help' for an example", arg)
		}
		entry := strings.Split(arg, "=")
		if len(entry) != 2 {
			return nil, fmt.Errorf("--vars requires ONE '=' operator (without spaces) per variable assignment, got '%s'", arg)
		}
		key := entry[0]
		if !varNameRE.MatchString(key) {
			return nil, fmt.Errorf("--vars requires valid variable names comprised of alphanumeric characters and underscores, got '%s'", key)
		}
		if containsString(Reserved, key) {
			return nil, fmt.Errorf("cannot override reserved word '%s'! Reserved words are: %s", key, strings.Join(Reserved, ", "))
		}
		result[key] = entry[1]
	}
	return result, nil
}

// Expand substitutes $(VAR) references in every step command using the
// spec's env variables merged with the given overrides. Overrides win.
// The expanded spec is a copy; the receiver is left untouched.
func (s *Spec) Expand(overrides map[string]string) (*Spec, error) {
	vars := map[string]string{}
	for name, value := range s.Env.Variables {
		if !varNameRE.MatchString(name) {
			return nil, fmt.Errorf("invalid env variable name '%s'", name)
		}
		vars[name] = fmt.Sprint(value)
	}
	for name, value := range overrides {
		vars[name] = value
	}

	expanded := *s
	expanded.Study = make([]Step, len(s.Study))
	copy(expanded.Study, s.Study)
	for i := range expanded.Study {
		run := &expanded.Study[i].Run
		run.Cmd = expandString(run.Cmd, vars)
		run.Restart = expandString(run.Restart, vars)
		run.TaskQueue = expandString(run.TaskQueue, vars)
	}
	if expanded.Env.Variables != nil {
		merged := make(map[string]interface{}, len(vars))
		for name, value := range vars {
			merged[name] = value
		}
		expanded.Env.Variables = merged
	}
	return &expanded, nil
}

func expandString(in string, vars map[string]string) string {
	if in == "" || !strings.Contains(in, "$(") {
		return in
	}
	out := in
	for name, value := range vars {
		out = strings.ReplaceAll(out, "$("+name+")", value)
	}
	return out
}

// Unexpanded reports whether the string still contains $(VAR) references.
// Worker names read from an unexpanded spec trip this check.
func Unexpanded(s string) bool {
	return strings.Contains(s, "$")
}
