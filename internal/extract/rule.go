package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/jonesrussell/newscrawl/internal/logger"
)

// Rule derives one article field from a page: a locator, a multiplicity flag,
// and an optional named post-process function applied to the raw value.
type Rule struct {
	Locator Locator `mapstructure:"locator" yaml:"locator"`
	// ExtractAll selects every match instead of the first one.
	ExtractAll bool `mapstructure:"extract_all" yaml:"extract_all"`
	// PostProcess names a registered post-process function. Configs carry the
	// name, never code; unknown names are rejected at load time.
	PostProcess string `mapstructure:"post_process" yaml:"post_process"`
}

// Validate checks the rule's locator and post-process reference.
func (r Rule) Validate() error {
	if err := r.Locator.Validate(); err != nil {
		return err
	}
	if r.PostProcess != "" {
		if _, ok := LookupPostProcess(r.PostProcess); !ok {
			return fmt.Errorf("unknown post-process function %q", r.PostProcess)
		}
	}
	return nil
}

// Engine applies extraction rules to parsed documents.
type Engine struct {
	logger logger.Interface
}

// NewEngine creates an extraction engine.
func NewEngine(log logger.Interface) *Engine {
	return &Engine{logger: log}
}

// Apply evaluates one rule against a document.
//
// An unset locator yields nil. With ExtractAll false the result is the first
// match trimmed of surrounding whitespace, or nil when nothing matched. With
// ExtractAll true the result is a []string of all matches, trimmed and with
// empty fragments dropped, possibly empty but never nil. A failing
// post-process function yields nil
// for this field only; extraction of other fields is unaffected.
func (e *Engine) Apply(doc *html.Node, rule Rule) any {
	if rule.Locator.IsZero() {
		return nil
	}

	matches, err := rule.Locator.Select(doc)
	if err != nil {
		e.logger.Warn("locator evaluation failed", "query", rule.Locator.Query, "error", err)
		return nil
	}

	var raw any
	if rule.ExtractAll {
		trimmed := make([]string, 0, len(matches))
		for _, match := range matches {
			if match = strings.TrimSpace(match); match != "" {
				trimmed = append(trimmed, match)
			}
		}
		raw = trimmed
	} else {
		if len(matches) == 0 {
			return nil
		}
		raw = strings.TrimSpace(matches[0])
	}

	if rule.PostProcess == "" {
		return raw
	}
	return e.postProcess(rule.PostProcess, raw)
}

// Fields applies every rule in the map and returns the extracted values keyed
// by field name. Fields whose rule produced nothing are present with a nil
// value, keeping the record shape stable across sites.
func (e *Engine) Fields(doc *html.Node, rules map[string]Rule) map[string]any {
	fields := make(map[string]any, len(rules))
	for name, rule := range rules {
		fields[name] = e.Apply(doc, rule)
	}
	return fields
}

// postProcess runs the named function, converting any error or panic into a
// nil field. One bad field must not lose the rest of the article.
func (e *Engine) postProcess(name string, raw any) (result any) {
	fn, ok := LookupPostProcess(name)
	if !ok {
		e.logger.Warn("post-process function not registered", "name", name)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("post-process panicked", "name", name, "panic", r)
			result = nil
		}
	}()

	processed, err := fn(raw)
	if err != nil {
		e.logger.Warn("post-process failed", "name", name, "error", err)
		return nil
	}
	return processed
}
