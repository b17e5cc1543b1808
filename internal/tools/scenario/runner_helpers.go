package scenario

import (
	"strings"

	"github.com/louisbranch/dramaturge/internal/narrative"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func (r *Runner) ensureDirector(state *scenarioState) error {
	if state.directorID == "" {
		return r.failf("director is required")
	}
	return nil
}

// resolveArcID maps an arc title to its id, falling back to the latest arc.
func (r *Runner) resolveArcID(state *scenarioState, title string) (narrative.ArcID, error) {
	if title == "" {
		title = state.lastArc
	}
	if title == "" {
		return "", r.failf("no arc declared")
	}
	if id, ok := state.arcs[title]; ok {
		return id, nil
	}
	for key, id := range state.arcs {
		if strings.EqualFold(key, title) {
			return id, nil
		}
	}
	return "", r.failf("unknown arc %q", title)
}

// resolveBeatID maps a beat title to its id, falling back to the latest beat.
func (r *Runner) resolveBeatID(state *scenarioState, title string) (narrative.BeatID, error) {
	if title == "" {
		title = state.lastBeat
	}
	if title == "" {
		return "", r.failf("no beat declared")
	}
	if id, ok := state.beats[title]; ok {
		return id, nil
	}
	for key, id := range state.beats {
		if strings.EqualFold(key, title) {
			return id, nil
		}
	}
	return "", r.failf("unknown beat %q", title)
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := readInt(args, key); ok {
		return value
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	if value, ok := readBool(args, key); ok {
		return value
	}
	return fallback
}

func readBool(args map[string]any, key string) (bool, bool) {
	value, ok := args[key]
	if !ok {
		return false, false
	}
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func readStringSlice(args map[string]any, key string) []string {
	value, ok := args[key]
	if !ok {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	results := make([]string, 0, len(list))
	for _, entry := range list {
		text, ok := entry.(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
