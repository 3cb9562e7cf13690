package hooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

func editCall(path string) *tooltypes.ToolCall {
	return &tooltypes.ToolCall{
		ToolName:  "Edit",
		Arguments: map[string]any{"path": path},
	}
}

func TestNewPipeline_SortsByOrderThenID(t *testing.T) {
	p, err := NewPipeline([]Binding{
		{ID: "zeta", Phase: PhasePreToolUse, Command: []string{"true"}, Order: 10},
		{ID: "alpha", Phase: PhasePreToolUse, Command: []string{"true"}, Order: 10},
		{ID: "first", Phase: PhasePreToolUse, Command: []string{"true"}, Order: 1},
	})
	require.NoError(t, err)

	selected := p.Select(PhasePreToolUse, editCall("main.go"))
	require.Len(t, selected, 3)
	assert.Equal(t, "first", selected[0].ID)
	assert.Equal(t, "alpha", selected[1].ID)
	assert.Equal(t, "zeta", selected[2].ID)
}

func TestNewPipeline_RejectsInvalidBindings(t *testing.T) {
	tests := []struct {
		name    string
		binding Binding
		errMsg  string
	}{
		{
			"missing id",
			Binding{Phase: PhasePreToolUse, Command: []string{"true"}},
			"id is required",
		},
		{
			"invalid phase",
			Binding{ID: "x", Phase: "MidToolUse", Command: []string{"true"}},
			"invalid phase",
		},
		{
			"missing command",
			Binding{ID: "x", Phase: PhasePostToolUse},
			"command is required",
		},
		{
			"bad path matcher",
			Binding{ID: "x", Phase: PhasePreToolUse, Command: []string{"true"}, Matcher: Matcher{Path: "[unclosed"}},
			"invalid path matcher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline([]Binding{tt.binding})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewPipeline_CollectsAllValidationErrors(t *testing.T) {
	_, err := NewPipeline([]Binding{
		{Phase: PhasePreToolUse, Command: []string{"true"}},
		{ID: "y", Phase: "Nope", Command: []string{"true"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
	assert.Contains(t, err.Error(), "invalid phase")
}

func TestSelect_FiltersByMatcher(t *testing.T) {
	p, err := NewPipeline([]Binding{
		{ID: "edit-only", Phase: PhasePreToolUse, Command: []string{"true"}, Matcher: Matcher{Tool: "Edit"}},
		{ID: "bash-only", Phase: PhasePreToolUse, Command: []string{"true"}, Matcher: Matcher{Tool: "Bash"}},
		{ID: "everything", Phase: PhasePreToolUse, Command: []string{"true"}},
	})
	require.NoError(t, err)

	selected := p.Select(PhasePreToolUse, editCall("main.go"))
	require.Len(t, selected, 2)
	assert.Equal(t, "edit-only", selected[0].ID)
	assert.Equal(t, "everything", selected[1].ID)
}

func TestSelect_PhaseIsolation(t *testing.T) {
	p, err := NewPipeline([]Binding{
		{ID: "pre", Phase: PhasePreToolUse, Command: []string{"true"}},
		{ID: "post", Phase: PhasePostToolUse, Command: []string{"true"}},
		{ID: "stop", Phase: PhaseStop, Command: []string{"true"}},
	})
	require.NoError(t, err)

	call := editCall("main.go")
	assert.Len(t, p.Select(PhasePreToolUse, call), 1)
	assert.Len(t, p.Select(PhasePostToolUse, call), 1)
	require.Len(t, p.StopBindings(), 1)
	assert.Equal(t, "stop", p.StopBindings()[0].ID)
}

func TestHasBindings(t *testing.T) {
	p, err := NewPipeline([]Binding{
		{ID: "pre", Phase: PhasePreToolUse, Command: []string{"true"}},
	})
	require.NoError(t, err)

	assert.True(t, p.HasBindings(PhasePreToolUse))
	assert.False(t, p.HasBindings(PhasePostToolUse))
	assert.False(t, p.HasBindings(PhaseStop))
}

func TestPipelineOptions(t *testing.T) {
	p, err := NewPipeline(nil, WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, p.Timeout())

	// Non-positive timeouts keep the default.
	p, err = NewPipeline(nil, WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, p.Timeout())
}
