package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/study/memory"
)

// previewRunes is how much of each record memory list shows.
const previewRunes = 200

func newMemoryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect conversation memory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every stored record",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(root)
				if err != nil {
					return err
				}
				defer a.close() //nolint:errcheck // No remedy for close errors on exit

				return printRecords(cmd.OutOrStdout(), a.store.ListAll(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Show recent records matching a query",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(root)
				if err != nil {
					return err
				}
				defer a.close() //nolint:errcheck // No remedy for close errors on exit

				return printRecords(cmd.OutOrStdout(), a.store.Recent(cmd.Context(), strings.Join(args, " ")))
			},
		},
	)
	return cmd
}

func printRecords(w io.Writer, records []memory.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "Nenhuma memória encontrada.")
		return err
	}
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, formatRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

func formatRecord(rec memory.Record) string {
	content := rec.Content
	if r := []rune(content); len(r) > previewRunes {
		content = string(r[:previewRunes]) + "..."
	}
	return fmt.Sprintf("- %s [%s]: %s", rec.CreatedAt.Format(time.RFC3339), rec.Role, content)
}
