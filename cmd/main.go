package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/ioc-monitor/cmd/cli"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

var (
	logMode    string
	configPath string
	sampleWait time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ioc-monitor",
	Short: "IOC resource monitor",
	Long:  `Aggregates CPU and memory usage of all master_ioc.py processes and publishes the totals`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.LogMode(logMode))
	},
	// With no subcommand the monitor runs, same as "run".
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll IOC processes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunMonitor(configPath)
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Take two polls and print the aggregate of the second",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunSample(cmd.OutOrStdout(), configPath, sampleWait)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (yaml, json or toml)")

	sampleCmd.Flags().DurationVar(&sampleWait, "wait", time.Second, "Interval between the baseline and the measured poll")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sampleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err, "Command failed")
		os.Exit(1)
	}
}
