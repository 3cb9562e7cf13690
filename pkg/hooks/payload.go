package hooks

import "time"

// BasePayload carries the fields common to every hook payload
type BasePayload struct {
	Event     Phase  `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	CWD       string `json:"cwd,omitempty"`
}

// PreToolUsePayload is sent to PreToolUse hooks on stdin. Arguments
// reflect any rewrites applied by earlier hooks in the chain.
type PreToolUsePayload struct {
	BasePayload
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// PostToolUsePayload is sent to PostToolUse hooks after the tool ran
type PostToolUsePayload struct {
	BasePayload
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// SessionSummary describes one finished session for Stop hooks
type SessionSummary struct {
	SessionID    string         `json:"session_id"`
	ToolCalls    int            `json:"tool_calls"`
	BlockedCalls int            `json:"blocked_calls"`
	ToolUsage    map[string]int `json:"tool_usage,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      time.Time      `json:"ended_at"`
}

// StopPayload is sent to Stop hooks once per session end, outside any
// single tool call.
type StopPayload struct {
	BasePayload
	Summary SessionSummary `json:"summary"`
}
