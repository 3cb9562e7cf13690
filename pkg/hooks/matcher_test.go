package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

func TestMatcher_ZeroValueMatchesEverything(t *testing.T) {
	c, err := Matcher{}.compile()
	require.NoError(t, err)

	assert.True(t, c.matches(&tooltypes.ToolCall{ToolName: "Edit"}))
	assert.True(t, c.matches(&tooltypes.ToolCall{ToolName: "Bash", Arguments: map[string]any{"command": "ls"}}))
}

func TestMatcher_ToolAlternatives(t *testing.T) {
	c, err := Matcher{Tool: "Edit|Write"}.compile()
	require.NoError(t, err)

	assert.True(t, c.matches(&tooltypes.ToolCall{ToolName: "Edit"}))
	assert.True(t, c.matches(&tooltypes.ToolCall{ToolName: "Write"}))
	assert.False(t, c.matches(&tooltypes.ToolCall{ToolName: "Bash"}))
}

func TestMatcher_ToolGlob(t *testing.T) {
	c, err := Matcher{Tool: "mcp__*"}.compile()
	require.NoError(t, err)

	assert.True(t, c.matches(&tooltypes.ToolCall{ToolName: "mcp__filesystem__read"}))
	assert.False(t, c.matches(&tooltypes.ToolCall{ToolName: "Edit"}))
}

func TestMatcher_PathGlob(t *testing.T) {
	c, err := Matcher{Tool: "Edit", Path: "**/.env*"}.compile()
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    *tooltypes.ToolCall
		matched bool
	}{
		{"env file in subdir", editCall("config/.env"), true},
		{"env variant", editCall("deploy/.env.production"), true},
		{"regular file", editCall("main.go"), false},
		{"no path argument", &tooltypes.ToolCall{ToolName: "Edit"}, false},
		{"wrong tool", &tooltypes.ToolCall{ToolName: "Bash", Arguments: map[string]any{"path": ".env"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matched, c.matches(tt.call))
		})
	}
}

func TestMatcher_PathOnly(t *testing.T) {
	c, err := Matcher{Path: "src/**/*.go"}.compile()
	require.NoError(t, err)

	assert.True(t, c.matches(&tooltypes.ToolCall{
		ToolName:  "Write",
		Arguments: map[string]any{"file_path": "src/server/main.go"},
	}))
	assert.False(t, c.matches(editCall("docs/readme.md")))
}

func TestMatcher_CompileErrors(t *testing.T) {
	_, err := Matcher{Tool: "[unclosed"}.compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tool matcher")

	_, err = Matcher{Path: "[unclosed"}.compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path matcher")
}
