// Package builtin provides in-process gate hooks so a host gets useful
// tool-call gating without shipping external scripts. A binding whose
// command is "builtin:<name>" is dispatched to the named gate; anything
// else falls through to the wrapped runner.
package builtin

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hookwire/hookwire/pkg/hooks"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// CommandPrefix marks a hook command as a built-in gate
const CommandPrefix = "builtin:"

// Gate evaluates a pre-tool-use payload in process
type Gate func(payload hooks.PreToolUsePayload) tooltypes.Verdict

// Runner dispatches builtin commands and delegates the rest
type Runner struct {
	fallback hooks.Runner
	gates    map[string]Gate
}

// NewRunner wraps a fallback runner with the builtin gates. Extra gates
// can be registered before the runner is handed to a pipeline.
func NewRunner(fallback hooks.Runner) *Runner {
	return &Runner{
		fallback: fallback,
		gates: map[string]Gate{
			"block-secrets":   BlockSecrets,
			"block-dangerous": BlockDangerous,
		},
	}
}

// Register adds a named gate. Registration must happen before the
// runner is used; the pipeline treats the runner as immutable.
func (r *Runner) Register(name string, gate Gate) {
	r.gates[name] = gate
}

// Run implements hooks.Runner
func (r *Runner) Run(ctx context.Context, binding *hooks.Binding, payload []byte) ([]byte, error) {
	name, ok := strings.CutPrefix(binding.Command[0], CommandPrefix)
	if !ok {
		if r.fallback == nil {
			return nil, errors.Errorf("hook %s: no fallback runner for external command", binding.ID)
		}
		return r.fallback.Run(ctx, binding, payload)
	}

	gate, ok := r.gates[name]
	if !ok {
		return nil, errors.Errorf("hook %s: unknown builtin gate %q", binding.ID, name)
	}

	var pre hooks.PreToolUsePayload
	if err := json.Unmarshal(payload, &pre); err != nil {
		return nil, errors.Wrapf(err, "hook %s: builtin gate payload", binding.ID)
	}

	return json.Marshal(gate(pre))
}
