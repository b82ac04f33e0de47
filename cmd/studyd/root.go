package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/study/config"
)

type rootOptions struct {
	configPath string
	logFile    string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "studyd",
		Short:         "Study assistant over your own material",
		Long:          `studyd explains topics, generates quiz questions and evaluates answers using your study notes and recent conversation memory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile != "" && opts.pretty {
				return fmt.Errorf("--logfile and --pretty are mutually exclusive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logFile, "logfile", "", "path to log file; logs go to stderr when unset")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable log output (only valid when logfile is not set)")

	cmd.AddCommand(
		newAskCmd(opts),
		newClassifyCmd(opts),
		newMemoryCmd(opts),
	)
	return cmd
}
