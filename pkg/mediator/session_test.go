package mediator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookwire/hookwire/pkg/hooks"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

func TestSession_TracksUsage(t *testing.T) {
	runner := &scriptedRunner{
		verdicts: map[string]tooltypes.Verdict{
			"env-gate": tooltypes.Block("secrets file"),
		},
	}
	m := newMediator(t, []hooks.Binding{
		{
			ID: "env-gate", Phase: hooks.PhasePreToolUse, Command: []string{"x"},
			Matcher: hooks.Matcher{Path: "**/.env*"},
		},
	}, runner, &spyInvoker{result: "ok"})

	session := m.NewSession()
	require.NotEmpty(t, session.ID())

	session.Execute(context.Background(), editCall("main.go"))
	session.Execute(context.Background(), editCall(".env"))
	session.Execute(context.Background(), &tooltypes.ToolCall{ToolName: "Bash", Arguments: map[string]any{"command": "ls"}})

	summary := session.Summary()
	assert.Equal(t, 3, summary.ToolCalls)
	assert.Equal(t, 1, summary.BlockedCalls)
	assert.Equal(t, map[string]int{"Edit": 2, "Bash": 1}, summary.ToolUsage)
	assert.False(t, summary.EndedAt.Before(summary.StartedAt))
}

func TestSession_SessionIDFlowsIntoPayloads(t *testing.T) {
	var sessionIDs []string
	runner := hooks.RunnerFunc(func(_ context.Context, _ *hooks.Binding, payload []byte) ([]byte, error) {
		var base hooks.BasePayload
		require.NoError(t, json.Unmarshal(payload, &base))
		sessionIDs = append(sessionIDs, base.SessionID)
		return nil, nil
	})

	m := newMediator(t, []hooks.Binding{
		{ID: "observer", Phase: hooks.PhasePreToolUse, Command: []string{"x"}},
	}, runner, &spyInvoker{})

	session := m.NewSession()
	session.Execute(context.Background(), editCall("a.go"))
	session.Execute(context.Background(), editCall("b.go"))

	require.Len(t, sessionIDs, 2)
	assert.Equal(t, session.ID(), sessionIDs[0])
	assert.Equal(t, session.ID(), sessionIDs[1])
}

func TestSession_StopFiresHooksOnceWithSummary(t *testing.T) {
	var stopPayloads []hooks.StopPayload
	runner := hooks.RunnerFunc(func(_ context.Context, binding *hooks.Binding, payload []byte) ([]byte, error) {
		if binding.Phase == hooks.PhaseStop {
			var p hooks.StopPayload
			require.NoError(t, json.Unmarshal(payload, &p))
			stopPayloads = append(stopPayloads, p)
		}
		return nil, nil
	})

	m := newMediator(t, []hooks.Binding{
		{ID: "session-report", Phase: hooks.PhaseStop, Command: []string{"x"}},
	}, runner, &spyInvoker{result: "ok"})

	session := m.NewSession()
	session.Execute(context.Background(), editCall("main.go"))

	summary := session.Stop(context.Background())
	assert.Equal(t, 1, summary.ToolCalls)

	require.Len(t, stopPayloads, 1)
	assert.Equal(t, hooks.PhaseStop, stopPayloads[0].Event)
	assert.Equal(t, session.ID(), stopPayloads[0].Summary.SessionID)
	assert.Equal(t, 1, stopPayloads[0].Summary.ToolCalls)

	// Second stop is a no-op.
	session.Stop(context.Background())
	assert.Len(t, stopPayloads, 1)
}

func TestSession_StopHooksRunInOrder(t *testing.T) {
	var order []string
	runner := hooks.RunnerFunc(func(_ context.Context, binding *hooks.Binding, _ []byte) ([]byte, error) {
		order = append(order, binding.ID)
		return nil, nil
	})

	m := newMediator(t, []hooks.Binding{
		{ID: "zz-first", Phase: hooks.PhaseStop, Command: []string{"x"}, Order: 1},
		{ID: "aa-second", Phase: hooks.PhaseStop, Command: []string{"x"}, Order: 2},
	}, runner, &spyInvoker{})

	m.NewSession().Stop(context.Background())
	assert.Equal(t, []string{"zz-first", "aa-second"}, order)
}

func TestSession_CrashingStopHookIsIgnored(t *testing.T) {
	runner := &scriptedRunner{
		failures: map[string]error{"broken-report": errors.New("no such file")},
	}
	m := newMediator(t, []hooks.Binding{
		{ID: "broken-report", Phase: hooks.PhaseStop, Command: []string{"x"}},
	}, runner, &spyInvoker{})

	// Stop must not panic or surface the failure.
	summary := m.NewSession().Stop(context.Background())
	assert.Equal(t, 0, summary.ToolCalls)
}

func TestSession_StatsDoNotAffectOutcome(t *testing.T) {
	m := newMediator(t, nil, &scriptedRunner{}, &spyInvoker{result: "ok"})
	session := m.NewSession()

	first := session.Execute(context.Background(), editCall("main.go"))
	for i := 0; i < 5; i++ {
		session.Execute(context.Background(), editCall("main.go"))
	}
	last := session.Execute(context.Background(), editCall("main.go"))

	assert.Equal(t, first, last)
}

