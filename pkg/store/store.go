// Package store loads and indexes resource definitions (agents, skills,
// hooks, commands) keyed by id, trigger keywords, and glob patterns. The
// store is pure data: it is built once by Load, immutable afterwards, and
// performs no I/O after loading completes.
package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Kind classifies a resource descriptor
type Kind string

// Resource kinds recognised by the store
const (
	KindAgent   Kind = "agent"
	KindSkill   Kind = "skill"
	KindHook    Kind = "hook"
	KindCommand Kind = "command"
)

// Valid reports whether k is a recognised resource kind
func (k Kind) Valid() bool {
	switch k {
	case KindAgent, KindSkill, KindHook, KindCommand:
		return true
	}
	return false
}

// Descriptor is one loaded resource. Identity is ID; descriptors are
// immutable once the store is built.
type Descriptor struct {
	ID              string
	Kind            Kind
	TriggerKeywords []string
	GlobPatterns    []string
	Priority        int
	PayloadRef      string

	keywordSet map[string]struct{}
}

// HasKeyword reports whether the descriptor registers the given
// (already-lowercased) keyword.
func (d *Descriptor) HasKeyword(token string) bool {
	_, ok := d.keywordSet[token]
	return ok
}

// MatchedKeywords returns how many of the given tokens the descriptor
// registers as trigger keywords.
func (d *Descriptor) MatchedKeywords(tokens map[string]struct{}) int {
	count := 0
	for token := range tokens {
		if d.HasKeyword(token) {
			count++
		}
	}
	return count
}

// MatchedGlobs returns how many of the descriptor's glob patterns match
// the given slash-separated path.
func (d *Descriptor) MatchedGlobs(path string) int {
	count := 0
	for _, pattern := range d.GlobPatterns {
		// Patterns are validated at load time.
		if doublestar.MatchUnvalidated(pattern, path) {
			count++
		}
	}
	return count
}

// RuleKind classifies a match rule pattern
type RuleKind string

// Match rule kinds
const (
	RuleKeyword RuleKind = "keyword"
	RuleGlob    RuleKind = "glob"
)

// MatchRule attaches an extra trigger pattern to an already-declared
// resource. Many rules may reference one resource; a rule whose target
// does not resolve is a load-time error, never a runtime one.
type MatchRule struct {
	Pattern          string
	Kind             RuleKind
	TargetResourceID string
}

// LoadError reports one failed configuration entry. Loading follows a
// partial-success model: a bad entry is reported and skipped, it never
// aborts the rest of the load.
type LoadError struct {
	Source string
	Cause  error
}

// Error implements the error interface
func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Cause)
}

// Unwrap exposes the underlying cause
func (e LoadError) Unwrap() error {
	return e.Cause
}

// CombineLoadErrors folds load errors into a single error for operator
// reporting, or nil if the slice is empty.
func CombineLoadErrors(errs []LoadError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}

// Source is one configuration source producing descriptors and rules.
// A source reports its own per-entry failures rather than failing whole.
type Source interface {
	ID() string
	Load() ([]Descriptor, []MatchRule, []LoadError)
}

// Store is the immutable in-memory resource index
type Store struct {
	byID    map[string]*Descriptor
	ordered []*Descriptor
}

// Load builds a store from the given sources. Descriptors with invalid
// kinds, malformed glob patterns, or duplicate ids are skipped and
// reported; match rules with dangling targets likewise. The returned
// store contains every entry that loaded cleanly.
func Load(sources ...Source) (*Store, []LoadError) {
	var loadErrs []LoadError

	byID := make(map[string]*Descriptor)
	var ordered []*Descriptor
	var rules []ruleWithSource

	for _, src := range sources {
		descriptors, srcRules, errs := src.Load()
		loadErrs = append(loadErrs, errs...)

		for i := range descriptors {
			d := descriptors[i]
			if err := normalizeDescriptor(&d); err != nil {
				loadErrs = append(loadErrs, LoadError{Source: src.ID(), Cause: err})
				continue
			}
			if _, exists := byID[d.ID]; exists {
				loadErrs = append(loadErrs, LoadError{
					Source: src.ID(),
					Cause:  errors.Errorf("duplicate resource id %q", d.ID),
				})
				continue
			}
			byID[d.ID] = &d
			ordered = append(ordered, &d)
		}

		for _, r := range srcRules {
			rules = append(rules, ruleWithSource{rule: r, source: src.ID()})
		}
	}

	for _, r := range rules {
		if err := applyRule(byID, r.rule); err != nil {
			loadErrs = append(loadErrs, LoadError{Source: r.source, Cause: err})
		}
	}

	// Deterministic base order: priority descending, id ascending.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	return &Store{byID: byID, ordered: ordered}, loadErrs
}

type ruleWithSource struct {
	rule   MatchRule
	source string
}

func normalizeDescriptor(d *Descriptor) error {
	if d.ID == "" {
		return errors.New("resource id is required")
	}
	if !d.Kind.Valid() {
		return errors.Errorf("resource %q: invalid kind %q", d.ID, d.Kind)
	}

	d.keywordSet = make(map[string]struct{}, len(d.TriggerKeywords))
	keywords := make([]string, 0, len(d.TriggerKeywords))
	for _, kw := range d.TriggerKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, seen := d.keywordSet[kw]; seen {
			continue
		}
		d.keywordSet[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	d.TriggerKeywords = keywords

	for _, pattern := range d.GlobPatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("resource %q: malformed glob pattern %q", d.ID, pattern)
		}
	}

	return nil
}

func applyRule(byID map[string]*Descriptor, rule MatchRule) error {
	target, ok := byID[rule.TargetResourceID]
	if !ok {
		return errors.Errorf("match rule %q: dangling reference to resource %q",
			rule.Pattern, rule.TargetResourceID)
	}

	switch rule.Kind {
	case RuleKeyword:
		kw := strings.ToLower(strings.TrimSpace(rule.Pattern))
		if kw == "" {
			return errors.Errorf("match rule for %q: empty keyword pattern", rule.TargetResourceID)
		}
		if !target.HasKeyword(kw) {
			target.keywordSet[kw] = struct{}{}
			target.TriggerKeywords = append(target.TriggerKeywords, kw)
			sort.Strings(target.TriggerKeywords)
		}
	case RuleGlob:
		if !doublestar.ValidatePattern(rule.Pattern) {
			return errors.Errorf("match rule for %q: malformed glob pattern %q",
				rule.TargetResourceID, rule.Pattern)
		}
		target.GlobPatterns = append(target.GlobPatterns, rule.Pattern)
	default:
		return errors.Errorf("match rule for %q: invalid rule kind %q",
			rule.TargetResourceID, rule.Kind)
	}

	return nil
}

// Lookup returns the descriptor with the given id, O(1)
func (s *Store) Lookup(id string) (*Descriptor, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Len returns the number of loaded resources
func (s *Store) Len() int {
	return len(s.ordered)
}

// Resources returns all descriptors ordered by descending priority,
// ties broken by ascending id.
func (s *Store) Resources() []*Descriptor {
	out := make([]*Descriptor, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// MatchByKeyword returns descriptors registering at least one of the
// given (lowercased) tokens, ordered by descending priority then
// ascending id.
func (s *Store) MatchByKeyword(tokens map[string]struct{}) []*Descriptor {
	var matches []*Descriptor
	for _, d := range s.ordered {
		if d.MatchedKeywords(tokens) > 0 {
			matches = append(matches, d)
		}
	}
	return matches
}

// MatchByPath returns descriptors with at least one glob pattern
// matching the path, ordered by descending priority then ascending id.
// A path may match multiple resources.
func (s *Store) MatchByPath(path string) []*Descriptor {
	path = filepath.ToSlash(path)
	var matches []*Descriptor
	for _, d := range s.ordered {
		if d.MatchedGlobs(path) > 0 {
			matches = append(matches, d)
		}
	}
	return matches
}
