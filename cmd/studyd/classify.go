package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/study/workflow"
)

func newClassifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <question>",
		Short: "Print the workflow a question would be routed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.close() //nolint:errcheck // No remedy for close errors on exit

			gw, err := a.gateway()
			if err != nil {
				return err
			}
			intent := workflow.NewClassifier(gw, a.logger).Classify(cmd.Context(), strings.Join(args, " "))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), intent)
			return err
		},
	}
}
