package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hookwire/hookwire/pkg/config"
	"github.com/hookwire/hookwire/pkg/hooks"
	"github.com/hookwire/hookwire/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate resource definitions and hook settings",
	Long: `Loads every configured resource directory, the registry, and the hook
settings file, and reports each entry that failed to load. Valid
entries still load, so one broken file never hides the rest.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		manager := config.NewManager(config.FromViper())

		loadErrs := manager.Load(ctx)
		for _, loadErr := range loadErrs {
			presenter.Error(loadErr.Cause, loadErr.Source)
		}

		snapshot := manager.Snapshot()
		if snapshot == nil {
			return fmt.Errorf("configuration is unusable: %d error(s)", len(loadErrs))
		}

		presenter.Section("Resources")
		for _, d := range snapshot.Store.Resources() {
			presenter.Info(fmt.Sprintf("%-24s %s (priority %d, %d trigger(s), %d glob(s))",
				d.ID, d.Kind, d.Priority, len(d.TriggerKeywords), len(d.GlobPatterns)))
		}

		presenter.Section("Hooks")
		for _, phase := range []hooks.Phase{hooks.PhasePreToolUse, hooks.PhasePostToolUse, hooks.PhaseStop} {
			if snapshot.Pipeline.HasBindings(phase) {
				presenter.Info(fmt.Sprintf("%s bindings configured", phase))
			}
		}

		if len(loadErrs) > 0 {
			presenter.Warning(fmt.Sprintf("%d entr(ies) failed to load", len(loadErrs)))
			return fmt.Errorf("validation found %d error(s)", len(loadErrs))
		}

		presenter.Success(fmt.Sprintf("%d resource(s) loaded cleanly", snapshot.Store.Len()))
		return nil
	},
}
