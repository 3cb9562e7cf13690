// Package tools defines the shared types exchanged between the trigger
// router, the hook pipeline, and the action mediator: tool calls, hook
// verdicts, and the final outcome returned to the caller.
package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ToolCall represents one requested tool invocation. It is ephemeral:
// one value per invocation, never persisted.
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Context   map[string]any `json:"context,omitempty"`
}

// CloneArguments returns a shallow copy of the call's arguments so that
// hook rewrites never mutate the caller's map.
func (c *ToolCall) CloneArguments() map[string]any {
	if c.Arguments == nil {
		return map[string]any{}
	}
	cloned := make(map[string]any, len(c.Arguments))
	for k, v := range c.Arguments {
		cloned[k] = v
	}
	return cloned
}

// PathArgument returns the path-like argument of the call, checking the
// conventional argument names used by file tools. Returns "" if none is set.
func (c *ToolCall) PathArgument() string {
	for _, key := range []string{"path", "file_path", "filename"} {
		if v, ok := c.Arguments[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// VerdictKind discriminates the outcome of a single hook evaluation
type VerdictKind string

// Verdict kinds emitted by hooks
const (
	VerdictAllow   VerdictKind = "allow"
	VerdictBlock   VerdictKind = "block"
	VerdictRewrite VerdictKind = "rewrite"
)

// Verdict is the outcome of one hook's evaluation of a tool call.
// Hooks emit it as JSON on stdout; an empty output is treated as Allow.
type Verdict struct {
	Kind         VerdictKind    `json:"verdict"`
	Reason       string         `json:"reason,omitempty"`
	NewArguments map[string]any `json:"new_arguments,omitempty"`
}

// Allow returns an allow verdict
func Allow() Verdict {
	return Verdict{Kind: VerdictAllow}
}

// Block returns a block verdict with a human-readable reason
func Block(reason string) Verdict {
	return Verdict{Kind: VerdictBlock, Reason: reason}
}

// Rewrite returns a rewrite verdict replacing the given argument fields
func Rewrite(newArguments map[string]any) Verdict {
	return Verdict{Kind: VerdictRewrite, NewArguments: newArguments}
}

// ParseVerdict decodes a verdict from hook stdout. Empty output means
// Allow. Unknown verdict kinds and malformed JSON are errors so the
// caller can apply crash semantics.
func ParseVerdict(output []byte) (Verdict, error) {
	if len(output) == 0 {
		return Allow(), nil
	}

	var v Verdict
	if err := json.Unmarshal(output, &v); err != nil {
		return Verdict{}, errors.Wrap(err, "malformed verdict output")
	}

	switch v.Kind {
	case VerdictAllow, VerdictBlock, VerdictRewrite:
		return v, nil
	case "":
		// A bare {"reason": ...} without a kind is treated as allow with
		// an annotation, matching lenient hook implementations.
		v.Kind = VerdictAllow
		return v, nil
	default:
		return Verdict{}, errors.Errorf("unknown verdict kind: %s", v.Kind)
	}
}

// RewriteRecord captures one applied rewrite for auditability
type RewriteRecord struct {
	Hook         string         `json:"hook"`
	NewArguments map[string]any `json:"new_arguments"`
}

// SideEffect is one annotation produced by a hook during a tool call
type SideEffect struct {
	Hook    string `json:"hook"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// ActionOutcome is the single result of mediating one tool call. It is
// created per call and discarded by the caller; it is never persisted.
type ActionOutcome struct {
	FinalVerdict    Verdict         `json:"final_verdict"`
	AppliedRewrites []RewriteRecord `json:"applied_rewrites,omitempty"`
	SideEffectLog   []SideEffect    `json:"side_effect_log,omitempty"`

	// ToolResult and ToolError carry the underlying tool collaborator's
	// result verbatim. ToolError is non-empty only when the tool ran and
	// returned an error; a blocked call has neither.
	ToolResult any    `json:"tool_result,omitempty"`
	ToolError  string `json:"tool_error,omitempty"`
}

// Blocked reports whether the call was blocked before tool execution
func (o *ActionOutcome) Blocked() bool {
	return o.FinalVerdict.Kind == VerdictBlock
}

// Invoker is the underlying tool collaborator supplied by the host.
// The mediator calls Invoke exactly once per non-blocked tool call and
// never retries; retries, if any, are the host's responsibility.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, arguments map[string]any) (any, error)
}

// InvokerFunc adapts a function to the Invoker interface
type InvokerFunc func(ctx context.Context, toolName string, arguments map[string]any) (any, error)

// Invoke calls the wrapped function
func (f InvokerFunc) Invoke(ctx context.Context, toolName string, arguments map[string]any) (any, error) {
	return f(ctx, toolName, arguments)
}
