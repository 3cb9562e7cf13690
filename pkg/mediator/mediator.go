// Package mediator orchestrates one tool invocation end to end: it runs
// matching pre-hooks, invokes the underlying tool if nothing blocked,
// runs post-hooks, and folds every verdict into a single ActionOutcome.
// The mediator is stateless with respect to the pipeline and store, so
// concurrent Execute calls need no synchronization.
package mediator

import (
	"context"
	"fmt"
	"os"

	"github.com/hookwire/hookwire/pkg/hooks"
	"github.com/hookwire/hookwire/pkg/logger"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// State tracks the lifecycle of one mediated tool call
type State string

// Tool call states. Blocked and Completed are terminal.
const (
	StatePending     State = "Pending"
	StatePreRunning  State = "PreRunning"
	StateBlocked     State = "Blocked"
	StateToolRunning State = "ToolRunning"
	StatePostRunning State = "PostRunning"
	StateCompleted   State = "Completed"
)

// Mediator drives the hook pipeline around an underlying tool collaborator
type Mediator struct {
	pipeline *hooks.Pipeline
	invoker  tooltypes.Invoker
	cwd      string
}

// New creates a mediator over the given pipeline and tool collaborator
func New(pipeline *hooks.Pipeline, invoker tooltypes.Invoker) *Mediator {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	return &Mediator{
		pipeline: pipeline,
		invoker:  invoker,
		cwd:      cwd,
	}
}

// Execute mediates one tool call. It always returns an outcome: every
// expected failure mode (blocked call, crashing hook, tool error) is
// reported inside the ActionOutcome, never as a panic or lost call.
func (m *Mediator) Execute(ctx context.Context, call *tooltypes.ToolCall) *tooltypes.ActionOutcome {
	return m.execute(ctx, call, "")
}

func (m *Mediator) execute(ctx context.Context, call *tooltypes.ToolCall, sessionID string) *tooltypes.ActionOutcome {
	log := logger.G(ctx).WithField("tool", call.ToolName)
	outcome := &tooltypes.ActionOutcome{}
	arguments := call.CloneArguments()

	// Pre-hooks are selected once on entering PreRunning, then run
	// strictly in order: later hooks must observe rewrites from earlier
	// ones, and a block is absorbing.
	preHooks := m.pipeline.Select(hooks.PhasePreToolUse, call)
	for _, binding := range preHooks {
		if err := ctx.Err(); err != nil {
			outcome.FinalVerdict = tooltypes.Block(
				fmt.Sprintf("cancelled before hook %s: %v", binding.ID, err))
			return outcome
		}

		payload := hooks.PreToolUsePayload{
			BasePayload: hooks.BasePayload{Event: hooks.PhasePreToolUse, SessionID: sessionID, CWD: m.cwd},
			ToolName:    call.ToolName,
			Arguments:   arguments,
		}

		verdict, err := m.pipeline.Evaluate(ctx, binding, payload)
		if err != nil {
			// Fail closed: a crashing or timed-out gate denies the call.
			log.WithError(err).WithField("hook", binding.ID).Warn("pre-hook execution failed, blocking call")
			outcome.FinalVerdict = tooltypes.Block(
				fmt.Sprintf("hook execution failure: %s: %v", binding.ID, err))
			return outcome
		}

		switch verdict.Kind {
		case tooltypes.VerdictBlock:
			// First blocking reason wins; remaining pre-hooks, the tool,
			// and all post-hooks are skipped.
			outcome.FinalVerdict = verdict
			return outcome
		case tooltypes.VerdictRewrite:
			for field, value := range verdict.NewArguments {
				arguments[field] = value
			}
			outcome.AppliedRewrites = append(outcome.AppliedRewrites, tooltypes.RewriteRecord{
				Hook:         binding.ID,
				NewArguments: verdict.NewArguments,
			})
		case tooltypes.VerdictAllow:
			if verdict.Reason != "" {
				outcome.SideEffectLog = append(outcome.SideEffectLog, tooltypes.SideEffect{
					Hook:    binding.ID,
					Phase:   string(hooks.PhasePreToolUse),
					Message: verdict.Reason,
				})
			}
		}
	}

	result, err := m.invoker.Invoke(ctx, call.ToolName, arguments)
	outcome.ToolResult = result
	if err != nil {
		// Propagated verbatim, never interpreted or retried here.
		outcome.ToolError = err.Error()
	}

	effectiveCall := &tooltypes.ToolCall{ToolName: call.ToolName, Arguments: arguments, Context: call.Context}
	for _, binding := range m.pipeline.Select(hooks.PhasePostToolUse, effectiveCall) {
		if ctx.Err() != nil {
			// Cancellation stops starting further hooks; the tool already
			// ran, so the outcome stays Allow.
			break
		}

		payload := hooks.PostToolUsePayload{
			BasePayload: hooks.BasePayload{Event: hooks.PhasePostToolUse, SessionID: sessionID, CWD: m.cwd},
			ToolName:    call.ToolName,
			Arguments:   arguments,
			Result:      result,
			Error:       outcome.ToolError,
		}

		verdict, err := m.pipeline.Evaluate(ctx, binding, payload)
		if err != nil {
			// Fail open: the tool already ran, a broken post-hook only logs.
			log.WithError(err).WithField("hook", binding.ID).Warn("post-hook execution failed")
			outcome.SideEffectLog = append(outcome.SideEffectLog, tooltypes.SideEffect{
				Hook:    binding.ID,
				Phase:   string(hooks.PhasePostToolUse),
				Message: fmt.Sprintf("hook execution failure (ignored): %v", err),
			})
			continue
		}

		switch verdict.Kind {
		case tooltypes.VerdictBlock:
			log.WithField("hook", binding.ID).WithField("reason", verdict.Reason).
				Warn("post-hook block verdict ignored, tool already ran")
			outcome.SideEffectLog = append(outcome.SideEffectLog, tooltypes.SideEffect{
				Hook:    binding.ID,
				Phase:   string(hooks.PhasePostToolUse),
				Message: fmt.Sprintf("block ignored (tool already ran): %s", verdict.Reason),
			})
		case tooltypes.VerdictRewrite:
			log.WithField("hook", binding.ID).Warn("post-hook rewrite verdict ignored")
			outcome.SideEffectLog = append(outcome.SideEffectLog, tooltypes.SideEffect{
				Hook:    binding.ID,
				Phase:   string(hooks.PhasePostToolUse),
				Message: "rewrite ignored: post-hooks may only annotate",
			})
		case tooltypes.VerdictAllow:
			if verdict.Reason != "" {
				outcome.SideEffectLog = append(outcome.SideEffectLog, tooltypes.SideEffect{
					Hook:    binding.ID,
					Phase:   string(hooks.PhasePostToolUse),
					Message: verdict.Reason,
				})
			}
		}
	}

	// Post-hooks cannot retroactively block a call that already ran.
	outcome.FinalVerdict = tooltypes.Allow()
	return outcome
}
