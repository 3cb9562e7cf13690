package mediator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hookwire/hookwire/pkg/hooks"
	"github.com/hookwire/hookwire/pkg/logger"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// Session groups tool calls for one caller and fires Stop hooks exactly
// once with a summary when the session ends. Statistics are recorded
// after each outcome is computed, so they never influence a verdict.
type Session struct {
	id        string
	mediator  *Mediator
	startedAt time.Time

	mu        sync.Mutex
	toolUsage map[string]int
	calls     int
	blocked   int
	stopped   bool
}

// NewSession starts a session with a fresh id
func (m *Mediator) NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		mediator:  m,
		startedAt: time.Now(),
		toolUsage: make(map[string]int),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Execute mediates one tool call within the session
func (s *Session) Execute(ctx context.Context, call *tooltypes.ToolCall) *tooltypes.ActionOutcome {
	outcome := s.mediator.execute(ctx, call, s.id)

	s.mu.Lock()
	s.calls++
	s.toolUsage[call.ToolName]++
	if outcome.Blocked() {
		s.blocked++
	}
	s.mu.Unlock()

	return outcome
}

// Summary snapshots the session statistics
func (s *Session) Summary() hooks.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := make(map[string]int, len(s.toolUsage))
	for tool, count := range s.toolUsage {
		usage[tool] = count
	}

	return hooks.SessionSummary{
		SessionID:    s.id,
		ToolCalls:    s.calls,
		BlockedCalls: s.blocked,
		ToolUsage:    usage,
		StartedAt:    s.startedAt,
		EndedAt:      time.Now(),
	}
}

// Stop fires every Stop-phase hook once with the session summary and
// marks the session finished. Stop hooks are non-gating: a crashing or
// blocking Stop hook is logged and ignored. Calling Stop again is a
// no-op.
func (s *Session) Stop(ctx context.Context) hooks.SessionSummary {
	s.mu.Lock()
	alreadyStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()

	summary := s.Summary()
	if alreadyStopped {
		return summary
	}

	log := logger.G(ctx).WithField("session_id", s.id)
	for _, binding := range s.mediator.pipeline.StopBindings() {
		if ctx.Err() != nil {
			log.Warn("session cancelled, skipping remaining stop hooks")
			break
		}

		payload := hooks.StopPayload{
			BasePayload: hooks.BasePayload{Event: hooks.PhaseStop, SessionID: s.id, CWD: s.mediator.cwd},
			Summary:     summary,
		}
		if _, err := s.mediator.pipeline.Evaluate(ctx, binding, payload); err != nil {
			log.WithError(err).WithField("hook", binding.ID).Warn("stop hook execution failed")
		}
	}

	return summary
}
