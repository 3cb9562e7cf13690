package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// Runner executes one hook command with the serialized payload on stdin
// and returns its stdout. The mediator treats any returned error as a
// crash; fail-closed or fail-open semantics are applied per phase by
// the caller, not here.
type Runner interface {
	Run(ctx context.Context, binding *Binding, payload []byte) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, binding *Binding, payload []byte) ([]byte, error)

// Run calls the wrapped function
func (f RunnerFunc) Run(ctx context.Context, binding *Binding, payload []byte) ([]byte, error) {
	return f(ctx, binding, payload)
}

// CommandRunner spawns the binding's command as an external process
type CommandRunner struct{}

// pipeGrace bounds how long Run waits for stdout/stderr to close after
// the command exits or its context expires. Without it a hook whose
// background child inherits the pipes keeps Run blocked until that
// child exits, no matter what the hook timeout says.
const pipeGrace = time.Second

// Run executes the command, feeding the payload on stdin. A non-zero
// exit code is an error; stderr is included in the message so a blocked
// caller can trace the failing hook.
func (r *CommandRunner) Run(ctx context.Context, binding *Binding, payload []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binding.Command[0], binding.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = pipeGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "hook %s failed: %s", binding.ID, stderr.String())
	}

	return stdout.Bytes(), nil
}

// Evaluate runs one hook with timeout enforcement and decodes its
// verdict. A timeout, non-zero exit, or malformed verdict all surface
// as errors so the mediator can apply the phase's failure semantics.
func (p *Pipeline) Evaluate(ctx context.Context, binding *Binding, payload any) (tooltypes.Verdict, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return tooltypes.Verdict{}, errors.Wrap(err, "failed to marshal hook payload")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.runner.Run(ctx, binding, payloadBytes)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return tooltypes.Verdict{}, errors.Errorf("hook %s timed out after %s", binding.ID, p.timeout)
		}
		return tooltypes.Verdict{}, err
	}

	verdict, err := tooltypes.ParseVerdict(bytes.TrimSpace(output))
	if err != nil {
		return tooltypes.Verdict{}, errors.Wrapf(err, "hook %s", binding.ID)
	}
	return verdict, nil
}
