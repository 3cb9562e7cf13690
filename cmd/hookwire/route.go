package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hookwire/hookwire/pkg/config"
	"github.com/hookwire/hookwire/pkg/presenter"
	"github.com/hookwire/hookwire/pkg/router"
)

var routeCmd = &cobra.Command{
	Use:   "route [utterance...]",
	Short: "Route an utterance or file path to matching resources",
	Long: `Matches an utterance's keywords (or, with --path, a file path's glob
patterns) against the loaded resources and prints the ranked plan:
one primary resource plus capped secondary matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path, err := cmd.Flags().GetString("path")
		if err != nil {
			return err
		}
		if path == "" && len(args) == 0 {
			return errors.New("provide an utterance or --path")
		}
		if path != "" && len(args) > 0 {
			return errors.New("utterance and --path are mutually exclusive")
		}

		manager := config.NewManager(config.FromViper())
		if loadErrs := manager.Load(ctx); len(loadErrs) > 0 {
			for _, loadErr := range loadErrs {
				presenter.Warning(loadErr.Error())
			}
		}
		snapshot := manager.Snapshot()
		if snapshot == nil {
			return errors.New("configuration is unusable")
		}

		var plan router.Plan
		if path != "" {
			plan = snapshot.Router.RouteFileEvent(ctx, path)
		} else {
			plan = snapshot.Router.RouteIntent(ctx, strings.Join(args, " "))
		}

		if plan.Empty() {
			presenter.Info("no matching resources")
			return nil
		}

		presenter.Section("Route Plan")
		presenter.Success(fmt.Sprintf("primary: %s (%s)", plan.Primary.ID, plan.Primary.Kind))
		for _, d := range plan.Secondary {
			presenter.Info(fmt.Sprintf("secondary: %s (%s)", d.ID, d.Kind))
		}
		return nil
	},
}

func init() {
	routeCmd.Flags().StringP("path", "p", "", "Route a file path instead of an utterance")
}
