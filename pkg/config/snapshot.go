package config

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/hookwire/hookwire/pkg/hooks"
	"github.com/hookwire/hookwire/pkg/logger"
	"github.com/hookwire/hookwire/pkg/router"
	"github.com/hookwire/hookwire/pkg/store"
)

// Snapshot is one fully-validated, immutable view of the loaded
// configuration. Readers always see either the previous snapshot or
// the new one, never a partially-applied reload.
type Snapshot struct {
	Store    *store.Store
	Router   *router.Router
	Pipeline *hooks.Pipeline
	LoadedAt time.Time
}

// Manager owns the current snapshot and swaps it atomically on reload
type Manager struct {
	cfg     *Config
	runner  hooks.Runner
	current atomic.Pointer[Snapshot]
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRunner substitutes the hook command runner used by built
// pipelines, e.g. to route builtin: commands in process.
func WithRunner(runner hooks.Runner) ManagerOption {
	return func(m *Manager) {
		m.runner = runner
	}
}

// NewManager creates a manager; call Load before reading the snapshot
func NewManager(cfg *Config, opts ...ManagerOption) *Manager {
	m := &Manager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current snapshot, nil before the first Load
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

// Load builds and installs the initial snapshot. Loading follows the
// partial-success model: entries that fail are reported as LoadErrors
// while the rest of the configuration is installed.
func (m *Manager) Load(ctx context.Context) []store.LoadError {
	snapshot, loadErrs := m.build(ctx)
	if snapshot == nil {
		return loadErrs
	}
	m.current.Store(snapshot)
	return loadErrs
}

// Reload validates a fresh snapshot and swaps it in only if it is
// fully clean. Any LoadError rejects the swap and leaves the previous
// snapshot intact and queryable.
func (m *Manager) Reload(ctx context.Context) []store.LoadError {
	snapshot, loadErrs := m.build(ctx)
	if len(loadErrs) > 0 || snapshot == nil {
		logger.G(ctx).WithField("errors", len(loadErrs)).
			Warn("reload rejected, keeping previous configuration snapshot")
		return loadErrs
	}
	m.current.Store(snapshot)
	logger.G(ctx).WithField("resources", snapshot.Store.Len()).Info("configuration reloaded")
	return nil
}

// build assembles a candidate snapshot from the configured sources
func (m *Manager) build(ctx context.Context) (*Snapshot, []store.LoadError) {
	var sources []store.Source
	for _, dir := range m.cfg.ResourceDirs {
		sources = append(sources, store.DirSource{Dir: dir})
	}
	if m.cfg.RegistryPath != "" {
		sources = append(sources, store.RegistrySource{Path: m.cfg.RegistryPath})
	}

	resourceStore, loadErrs := store.Load(sources...)

	bindings, err := hooks.LoadSettings(m.cfg.HookSettingsPath)
	if err != nil {
		loadErrs = append(loadErrs, store.LoadError{Source: m.cfg.HookSettingsPath, Cause: err})
	}

	var pipelineOpts []hooks.PipelineOption
	if m.runner != nil {
		pipelineOpts = append(pipelineOpts, hooks.WithRunner(m.runner))
	}
	if m.cfg.HookTimeout > 0 {
		pipelineOpts = append(pipelineOpts, hooks.WithTimeout(m.cfg.HookTimeout))
	}

	pipeline, err := hooks.NewPipeline(bindings, pipelineOpts...)
	if err != nil {
		loadErrs = append(loadErrs, store.LoadError{
			Source: m.cfg.HookSettingsPath,
			Cause:  errors.Wrap(err, "invalid hook bindings"),
		})
		// A broken gate configuration must not produce a pipeline that
		// silently passes calls through.
		return nil, loadErrs
	}

	var routerOpts []router.Option
	if m.cfg.SecondaryCap > 0 {
		routerOpts = append(routerOpts, router.WithSecondaryCap(m.cfg.SecondaryCap))
	}
	if len(m.cfg.Aliases) > 0 {
		routerOpts = append(routerOpts, router.WithAliases(m.cfg.Aliases))
	}

	for _, loadErr := range loadErrs {
		logger.G(ctx).WithField("source", loadErr.Source).WithError(loadErr.Cause).
			Warn("configuration entry failed to load")
	}

	return &Snapshot{
		Store:    resourceStore,
		Router:   router.New(resourceStore, routerOpts...),
		Pipeline: pipeline,
		LoadedAt: time.Now(),
	}, loadErrs
}
