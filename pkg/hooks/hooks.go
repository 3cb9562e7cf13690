// Package hooks implements the ordered interceptor chain around tool
// invocations. Hook bindings attach external executables to lifecycle
// phases; each executable receives a JSON payload on stdin and answers
// with a verdict on stdout. Within one tool call hooks run strictly
// sequentially so that rewrites from earlier hooks are observed by
// later ones and a block short-circuits the chain.
package hooks

import (
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// Phase identifies a lifecycle phase a hook binds to
type Phase string

// Lifecycle phases
const (
	PhasePreToolUse  Phase = "PreToolUse"
	PhasePostToolUse Phase = "PostToolUse"
	PhaseStop        Phase = "Stop"
)

// Valid reports whether p is a recognised phase
func (p Phase) Valid() bool {
	switch p {
	case PhasePreToolUse, PhasePostToolUse, PhaseStop:
		return true
	}
	return false
}

// DefaultTimeout bounds a single hook execution; exceeding it is
// treated the same as a crash.
const DefaultTimeout = 5 * time.Second

// Binding attaches one external command to a lifecycle phase. Bindings
// are created from configuration at startup and immutable during a
// session. Execution order within a phase is total: ascending Order,
// ties broken by lexical id.
type Binding struct {
	ID      string
	Phase   Phase
	Matcher Matcher
	Command []string
	Order   int

	compiled *compiledMatcher
}

// Pipeline holds the compiled, phase-indexed hook chain
type Pipeline struct {
	bindings map[Phase][]*Binding
	runner   Runner
	timeout  time.Duration
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithRunner substitutes the command runner, letting hosts and tests
// replace process spawning.
func WithRunner(runner Runner) PipelineOption {
	return func(p *Pipeline) {
		p.runner = runner
	}
}

// WithTimeout overrides the per-hook execution timeout
func WithTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewPipeline compiles and orders the given bindings. Binding
// validation is strict: an invalid phase, empty command, or malformed
// matcher pattern fails construction, since a misconfigured gate must
// not silently pass calls through.
func NewPipeline(bindings []Binding, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		bindings: make(map[Phase][]*Binding),
		runner:   &CommandRunner{},
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	var result *multierror.Error
	for i := range bindings {
		b := bindings[i]
		if err := validateBinding(&b); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		compiled, err := b.Matcher.compile()
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "hook %q", b.ID))
			continue
		}
		b.compiled = compiled
		p.bindings[b.Phase] = append(p.bindings[b.Phase], &b)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	for phase := range p.bindings {
		chain := p.bindings[phase]
		sort.SliceStable(chain, func(i, j int) bool {
			if chain[i].Order != chain[j].Order {
				return chain[i].Order < chain[j].Order
			}
			return chain[i].ID < chain[j].ID
		})
	}

	return p, nil
}

func validateBinding(b *Binding) error {
	if b.ID == "" {
		return errors.New("hook binding id is required")
	}
	if !b.Phase.Valid() {
		return errors.Errorf("hook %q: invalid phase %q", b.ID, b.Phase)
	}
	if len(b.Command) == 0 {
		return errors.Errorf("hook %q: command is required", b.ID)
	}
	return nil
}

// Select returns the bindings of the given phase whose matcher accepts
// the call, in execution order.
func (p *Pipeline) Select(phase Phase, call *tooltypes.ToolCall) []*Binding {
	var selected []*Binding
	for _, b := range p.bindings[phase] {
		if b.compiled.matches(call) {
			selected = append(selected, b)
		}
	}
	return selected
}

// StopBindings returns all Stop-phase bindings in execution order.
// Stop hooks run outside any single tool call, so no matcher applies.
func (p *Pipeline) StopBindings() []*Binding {
	return p.bindings[PhaseStop]
}

// HasBindings reports whether any hooks are bound to the phase
func (p *Pipeline) HasBindings(phase Phase) bool {
	return len(p.bindings[phase]) > 0
}

// Timeout returns the per-hook execution timeout
func (p *Pipeline) Timeout() time.Duration {
	return p.timeout
}
