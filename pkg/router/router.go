// Package router maps input events onto ordered sets of resources. Free
// text intent is matched against trigger keywords, file events against
// glob patterns; both produce a RoutePlan with a deterministic total
// ordering so that repeated calls with identical input return identical
// plans.
package router

import (
	"context"
	"sort"
	"strings"

	"github.com/hookwire/hookwire/pkg/logger"
	"github.com/hookwire/hookwire/pkg/store"
)

// DefaultSecondaryCap bounds downstream fan-out of a route plan
const DefaultSecondaryCap = 5

// Plan is the ranked result of matching an input event against the
// store. Primary is the top-ranked match, nil if nothing matched;
// Secondary holds the remainder up to the configured cap.
type Plan struct {
	Primary   *store.Descriptor
	Secondary []*store.Descriptor
}

// Empty reports whether the plan matched nothing
func (p Plan) Empty() bool {
	return p.Primary == nil
}

// IDs returns primary + secondary ids in rank order, mainly for logging
// and tests.
func (p Plan) IDs() []string {
	if p.Primary == nil {
		return nil
	}
	ids := []string{p.Primary.ID}
	for _, d := range p.Secondary {
		ids = append(ids, d.ID)
	}
	return ids
}

// Router routes utterances and file events against a loaded store
type Router struct {
	store        *store.Store
	aliases      map[string]string
	secondaryCap int
}

// Option configures a Router
type Option func(*Router)

// WithSecondaryCap overrides the secondary fan-out cap
func WithSecondaryCap(cap int) Option {
	return func(r *Router) {
		if cap >= 0 {
			r.secondaryCap = cap
		}
	}
}

// WithAliases merges extra keyword aliases over the static default table
func WithAliases(aliases map[string]string) Option {
	return func(r *Router) {
		for alias, canonical := range aliases {
			r.aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
		}
	}
}

// New creates a router over the given store
func New(s *store.Store, opts ...Option) *Router {
	r := &Router{
		store:        s,
		aliases:      defaultAliases(),
		secondaryCap: DefaultSecondaryCap,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidate pairs a descriptor with its keyword match count for ranking
type candidate struct {
	descriptor *store.Descriptor
	matched    int
}

// RouteIntent tokenizes the utterance and ranks resources by matched
// keyword count (descending), then priority (descending), then id
// (ascending). An empty utterance yields an empty plan, not an error.
func (r *Router) RouteIntent(ctx context.Context, utterance string) Plan {
	tokens := r.expandTokens(Tokenize(utterance))
	if len(tokens) == 0 {
		return Plan{}
	}

	var candidates []candidate
	for _, d := range r.store.MatchByKeyword(tokens) {
		candidates = append(candidates, candidate{
			descriptor: d,
			matched:    d.MatchedKeywords(tokens),
		})
	}

	return r.rank(ctx, candidates)
}

// RouteFileEvent matches the path against each resource's glob patterns.
// A path may match multiple resources; all matches are ranked by number
// of matching patterns, priority, then id. A path outside any known
// pattern yields an empty plan.
func (r *Router) RouteFileEvent(ctx context.Context, path string) Plan {
	if path == "" {
		return Plan{}
	}

	var candidates []candidate
	for _, d := range r.store.MatchByPath(path) {
		candidates = append(candidates, candidate{
			descriptor: d,
			matched:    d.MatchedGlobs(path),
		})
	}

	return r.rank(ctx, candidates)
}

// rank orders candidates under the total tie-break policy and splits
// them into primary and capped secondary.
func (r *Router) rank(ctx context.Context, candidates []candidate) Plan {
	if len(candidates) == 0 {
		return Plan{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].matched != candidates[j].matched {
			return candidates[i].matched > candidates[j].matched
		}
		if candidates[i].descriptor.Priority != candidates[j].descriptor.Priority {
			return candidates[i].descriptor.Priority > candidates[j].descriptor.Priority
		}
		return candidates[i].descriptor.ID < candidates[j].descriptor.ID
	})

	// Matched count and priority are the meaningful ranking keys; the id
	// comparison only guarantees determinism. Surface when it decided.
	if len(candidates) > 1 {
		first, second := candidates[0], candidates[1]
		if first.matched == second.matched &&
			first.descriptor.Priority == second.descriptor.Priority {
			logger.G(ctx).WithField("primary", first.descriptor.ID).
				WithField("runner_up", second.descriptor.ID).
				Warn("match ambiguity: primary selected by id tie-break")
		}
	}

	plan := Plan{Primary: candidates[0].descriptor}
	for _, c := range candidates[1:] {
		if len(plan.Secondary) >= r.secondaryCap {
			break
		}
		plan.Secondary = append(plan.Secondary, c.descriptor)
	}
	return plan
}

// expandTokens lowercases tokens and folds registered aliases onto their
// canonical keyword, keeping the original token as well so resources
// registered under the alias itself still match.
func (r *Router) expandTokens(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
		if canonical, ok := r.aliases[token]; ok {
			set[canonical] = struct{}{}
		}
	}
	return set
}

// Tokenize lowercases the utterance, strips punctuation, and splits on
// whitespace. Intentionally not NLP: the router consumes a deterministic
// keyword match.
func Tokenize(utterance string) []string {
	lowered := strings.ToLower(utterance)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !isTokenRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '+' || r == '#':
		// Keep identifiers like snake_case, kebab-case, c++ and c#.
		return true
	}
	return false
}
