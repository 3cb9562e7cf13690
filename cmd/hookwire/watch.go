package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hookwire/hookwire/pkg/config"
	"github.com/hookwire/hookwire/pkg/presenter"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch configuration files and reload on change",
	Long: `Loads the configuration, then monitors the resource directories, the
registry, and the hook settings file for changes. Each change triggers
a validation pass; a snapshot is swapped in only when it loads cleanly,
so a broken edit never degrades the running configuration.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		debounceMs, err := cmd.Flags().GetInt("debounce")
		if err != nil {
			return err
		}

		manager := config.NewManager(config.FromViper())
		loadErrs := manager.Load(ctx)
		for _, loadErr := range loadErrs {
			presenter.Warning(loadErr.Error())
		}
		snapshot := manager.Snapshot()
		if snapshot == nil {
			return errors.New("configuration is unusable")
		}

		presenter.Info(fmt.Sprintf("%d resource(s) loaded, watching for changes... Press Ctrl+C to stop",
			snapshot.Store.Len()))

		return manager.Watch(ctx, time.Duration(debounceMs)*time.Millisecond)
	},
}

func init() {
	watchCmd.Flags().IntP("debounce", "d", 500, "Debounce time in milliseconds for file change events")
}
