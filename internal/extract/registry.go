package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonesrussell/newscrawl/internal/dates"
)

// PostProcessFunc transforms a raw extracted value (string or []string) into
// the final field value. Functions must be pure; a nil result with a nil
// error means "field absent".
type PostProcessFunc func(raw any) (any, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]PostProcessFunc{
		"parse_date":   parseDate,
		"join_strings": joinStrings,
	}
)

// RegisterPostProcess adds a named post-process function. Registration happens
// at init time, before configs referencing the name are validated.
func RegisterPostProcess(name string, fn PostProcessFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// LookupPostProcess returns the function registered under name.
func LookupPostProcess(name string) (PostProcessFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// parseDate normalizes a raw date string to YYYY-MM-DD. Slices are joined
// first so it also works on extract-all rules.
func parseDate(raw any) (any, error) {
	text, err := coerceString(raw)
	if err != nil {
		return nil, err
	}
	parsed := dates.ParseString(text)
	if parsed == "" {
		return nil, nil
	}
	return parsed, nil
}

// joinStrings collapses a multi-match value into one space-separated string,
// dropping empty fragments.
func joinStrings(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case []string:
		parts := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " "), nil
	default:
		return nil, fmt.Errorf("join_strings: unsupported type %T", raw)
	}
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []string:
		return strings.Join(v, " "), nil
	default:
		return "", fmt.Errorf("expected string or []string, got %T", raw)
	}
}
