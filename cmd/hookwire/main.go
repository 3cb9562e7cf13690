package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hookwire/hookwire/pkg/config"
	"github.com/hookwire/hookwire/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hookwire",
	Short: "Trigger routing and hook-mediated tool execution",
	Long: `Hookwire routes intents and file events to registered resources and
mediates tool calls through external hook executables that can block,
rewrite, or annotate them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLogLevel(viper.GetString("log_level"))
		logger.SetLogFormat(viper.GetString("log_format"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func init() {
	config.InitViper()
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (fmt, json, text)")
	rootCmd.PersistentFlags().StringSlice("resource-dir", nil, "Directory of resource definitions (repeatable)")
	rootCmd.PersistentFlags().String("registry", "", "Path to the YAML resource registry")
	rootCmd.PersistentFlags().String("hooks", "", "Path to the YAML hook settings file")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("resource_dirs", rootCmd.PersistentFlags().Lookup("resource-dir"))
	viper.BindPFlag("registry_path", rootCmd.PersistentFlags().Lookup("registry"))
	viper.BindPFlag("hook_settings_path", rootCmd.PersistentFlags().Lookup("hooks"))

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(signalContext()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}
