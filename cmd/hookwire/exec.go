package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hookwire/hookwire/pkg/config"
	"github.com/hookwire/hookwire/pkg/hooks"
	"github.com/hookwire/hookwire/pkg/hooks/builtin"
	"github.com/hookwire/hookwire/pkg/mediator"
	"github.com/hookwire/hookwire/pkg/presenter"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// execOutcome is the JSON shape printed for a mediated call
type execOutcome struct {
	Verdict     tooltypes.Verdict        `json:"verdict"`
	Rewrites    []tooltypes.RewriteRecord `json:"rewrites,omitempty"`
	SideEffects []tooltypes.SideEffect    `json:"side_effects,omitempty"`
	Result      any                       `json:"result,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a tool call through the hook pipeline",
	Long: `Reads tool calls as a stream of JSON objects from stdin ({"tool_name":
..., "arguments": {...}}), mediates each through the configured hooks
as one session, and prints the outcomes. When the stream ends, Stop
hooks fire with the session summary. The tools themselves are echoed
rather than executed, which makes this command a safe way to test hook
configurations.

Hook commands prefixed with "builtin:" dispatch to in-process gates
(block-secrets, block-dangerous) instead of external executables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		runner := builtin.NewRunner(&hooks.CommandRunner{})
		manager := config.NewManager(config.FromViper(), config.WithRunner(runner))
		if loadErrs := manager.Load(ctx); len(loadErrs) > 0 {
			for _, loadErr := range loadErrs {
				presenter.Warning(loadErr.Error())
			}
		}
		snapshot := manager.Snapshot()
		if snapshot == nil {
			return errors.New("configuration is unusable")
		}

		med := mediator.New(snapshot.Pipeline, echoInvoker{})
		session := med.NewSession()

		anyBlocked := false
		decoder := json.NewDecoder(os.Stdin)
		for {
			var call tooltypes.ToolCall
			if err := decoder.Decode(&call); err == io.EOF {
				break
			} else if err != nil {
				return errors.Wrap(err, "failed to parse tool call")
			}
			if call.ToolName == "" {
				return errors.New("tool_name is required")
			}

			outcome := session.Execute(ctx, &call)
			anyBlocked = anyBlocked || outcome.Blocked()

			out, err := json.MarshalIndent(makeExecOutcome(outcome), "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to format outcome")
			}
			fmt.Println(string(out))
		}

		summary := session.Stop(ctx)
		presenter.Stats(presenter.ConvertSummary(summary))

		if anyBlocked {
			os.Exit(2)
		}
		return nil
	},
}

// makeExecOutcome flattens an outcome into the printed JSON shape
func makeExecOutcome(outcome *tooltypes.ActionOutcome) execOutcome {
	return execOutcome{
		Verdict:     outcome.FinalVerdict,
		Rewrites:    outcome.AppliedRewrites,
		SideEffects: outcome.SideEffectLog,
		Result:      outcome.ToolResult,
		Error:       outcome.ToolError,
	}
}

// echoInvoker stands in for a real tool: it reports what would have
// run, after any hook rewrites were applied
type echoInvoker struct{}

func (echoInvoker) Invoke(_ context.Context, toolName string, arguments map[string]any) (any, error) {
	return map[string]any{"tool_name": toolName, "arguments": arguments}, nil
}
