package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookwire/hookwire/pkg/hooks"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	resourceDir := filepath.Join(dir, "resources")
	require.NoError(t, os.Mkdir(resourceDir, 0o755))
	writeFile(t, resourceDir, "code-review.md", `---
name: code-review
kind: agent
triggers: [review, code]
priority: 5
---
Review the changed files.
`)
	hooksPath := writeFile(t, dir, "hooks.yaml", `hooks:
  PreToolUse:
    - id: block-secrets
      tool: Edit|Write
      command: ["true"]
`)
	return &Config{
		ResourceDirs:     []string{resourceDir},
		HookSettingsPath: hooksPath,
		HookTimeout:      2 * time.Second,
	}, resourceDir
}

func TestManager_Load(t *testing.T) {
	cfg, _ := testConfig(t)
	m := NewManager(cfg)

	require.Nil(t, m.Snapshot())

	loadErrs := m.Load(context.Background())
	assert.Empty(t, loadErrs)

	snapshot := m.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, 1, snapshot.Store.Len())
	assert.True(t, snapshot.Pipeline.HasBindings(hooks.PhasePreToolUse))
	assert.Equal(t, 2*time.Second, snapshot.Pipeline.Timeout())
	assert.False(t, snapshot.LoadedAt.IsZero())
}

func TestManager_LoadPartialSuccessStillInstalls(t *testing.T) {
	cfg, resourceDir := testConfig(t)
	writeFile(t, resourceDir, "broken.md", "no frontmatter here\n")
	m := NewManager(cfg)

	loadErrs := m.Load(context.Background())
	require.Len(t, loadErrs, 1)
	assert.Contains(t, loadErrs[0].Error(), "broken.md")

	snapshot := m.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, 1, snapshot.Store.Len())
}

func TestManager_ReloadSwapsCleanSnapshot(t *testing.T) {
	cfg, resourceDir := testConfig(t)
	m := NewManager(cfg)
	require.Empty(t, m.Load(context.Background()))
	first := m.Snapshot()

	writeFile(t, resourceDir, "security-audit.md", `---
name: security-audit
kind: agent
triggers: [security]
---
Audit the code.
`)

	require.Empty(t, m.Reload(context.Background()))
	second := m.Snapshot()
	require.NotSame(t, first, second)
	assert.Equal(t, 1, first.Store.Len())
	assert.Equal(t, 2, second.Store.Len())
}

func TestManager_ReloadRejectedKeepsOldSnapshot(t *testing.T) {
	cfg, resourceDir := testConfig(t)
	m := NewManager(cfg)
	require.Empty(t, m.Load(context.Background()))
	first := m.Snapshot()

	writeFile(t, resourceDir, "half-saved.md", "---\nkind: agent\n---\nno name\n")

	loadErrs := m.Reload(context.Background())
	require.NotEmpty(t, loadErrs)
	assert.Same(t, first, m.Snapshot())

	_, ok := first.Store.Lookup("code-review")
	assert.True(t, ok)
}

func TestManager_LoadRejectsUncompilableBindings(t *testing.T) {
	cfg, _ := testConfig(t)
	writeFile(t, filepath.Dir(cfg.HookSettingsPath), "hooks.yaml", `hooks:
  PreToolUse:
    - id: bad-matcher
      tool: "["
      command: ["true"]
`)
	m := NewManager(cfg)

	loadErrs := m.Load(context.Background())
	require.NotEmpty(t, loadErrs)
	assert.Nil(t, m.Snapshot())
}

func TestManager_LoadReportsDroppedBindings(t *testing.T) {
	cfg, _ := testConfig(t)
	writeFile(t, filepath.Dir(cfg.HookSettingsPath), "hooks.yaml", `hooks:
  PreToolUse:
    - id: no-command
      tool: Bash
`)
	m := NewManager(cfg)

	loadErrs := m.Load(context.Background())
	require.Len(t, loadErrs, 1)
	assert.Contains(t, loadErrs[0].Error(), "missing command")

	snapshot := m.Snapshot()
	require.NotNil(t, snapshot)
	assert.False(t, snapshot.Pipeline.HasBindings(hooks.PhasePreToolUse))
}

func TestManager_WithRunner(t *testing.T) {
	cfg, _ := testConfig(t)
	called := false
	runner := hooks.RunnerFunc(func(ctx context.Context, binding *hooks.Binding, payload []byte) ([]byte, error) {
		called = true
		return nil, nil
	})
	m := NewManager(cfg, WithRunner(runner))
	require.Empty(t, m.Load(context.Background()))

	snapshot := m.Snapshot()
	assert.Empty(t, snapshot.Pipeline.StopBindings())

	pre := snapshot.Pipeline.Select(hooks.PhasePreToolUse, &tooltypes.ToolCall{ToolName: "Edit"})
	require.Len(t, pre, 1)
	_, err := snapshot.Pipeline.Evaluate(context.Background(), pre[0], struct{}{})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestManager_RouterUsesConfiguredOptions(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Aliases = map[string]string{"cr": "review"}
	m := NewManager(cfg)
	require.Empty(t, m.Load(context.Background()))

	plan := m.Snapshot().Router.RouteIntent(context.Background(), "run a cr pass")
	require.NotNil(t, plan.Primary)
	assert.Equal(t, "code-review", plan.Primary.ID)
}

func TestRelevantChange(t *testing.T) {
	cfg, resourceDir := testConfig(t)
	m := NewManager(cfg)

	assert.True(t, m.relevantChange(filepath.Join(resourceDir, "new.md")))
	assert.True(t, m.relevantChange(cfg.HookSettingsPath))
	assert.False(t, m.relevantChange(filepath.Join(resourceDir, "notes.txt")))
	assert.False(t, m.relevantChange("/elsewhere/other.md"))
}
