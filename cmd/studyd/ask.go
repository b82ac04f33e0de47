package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/study/workflow"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		docs   []string
		answer string
	)
	cmd := &cobra.Command{
		Use:   "ask [flags] <question>",
		Short: "Ask for an explanation, a quiz or an evaluation",
		Long: `Ask routes the question to one of three workflows: explain a topic, generate
quiz questions, or evaluate the answer given with --answer. Study material
passed with --doc is chunked and searched for context.`,
		Args: cobra.MinimumNArgs(1),
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
			engine, err := a.engine(cmd.Context(), gw, docs)
			if err != nil {
				return err
			}

			result, err := engine.Run(cmd.Context(), workflow.Request{
				Question:   strings.Join(args, " "),
				UserAnswer: answer,
			})
			if err != nil {
				return err
			}
			if !result.Persisted {
				a.logger.Warn().Str("intent", result.Intent.String()).Msg("Exchange was not saved to memory")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text())
			return err
		},
	}
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "study material file to search (repeatable)")
	cmd.Flags().StringVar(&answer, "answer", "", "your answer, for evaluation requests")
	return cmd
}
