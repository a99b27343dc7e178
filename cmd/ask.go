package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milldesk/milldesk/internal/pipeline"
	"github.com/milldesk/milldesk/internal/tui"
)

var askStore string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about attendance records",
	Long: `Ask a single question from the command line, or launch the interactive
chat when no question is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		runner, auditLog, err := buildRunner(cfg, logger)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		if len(args) == 0 {
			return tui.Run(runner, cfg.StoreNames())
		}

		store := askStore
		if store == "" {
			names := cfg.StoreNames()
			if len(names) != 1 {
				return fmt.Errorf("multiple stores configured; pick one with --store (%s)",
					strings.Join(names, ", "))
			}
			store = names[0]
		}

		question := strings.Join(args, " ")
		out, err := runner.Run(cmd.Context(), question, store)
		if err != nil {
			return err
		}

		printOutcome(out)
		return nil
	},
}

func printOutcome(out pipeline.Outcome) {
	switch out.Kind {
	case pipeline.OutcomeExecuted:
		fmt.Printf("%d row(s)\n", out.RowCount)
		fmt.Printf("  %s\n", out.SQL)
		if len(out.Rows) > 0 {
			fmt.Println()
			printRows(out.Rows)
		}
	case pipeline.OutcomeBlocked:
		fmt.Println(out.Message)
		if out.Reason != "" {
			fmt.Printf("  reason: %s\n", out.Reason)
		}
		fmt.Printf("  %s\n", out.SQL)
	default:
		fmt.Println(out.Message)
	}
}

func printRows(rows []map[string]any) {
	cols := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	fmt.Println(strings.Join(cols, "\t"))
	for _, row := range rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = fmt.Sprint(row[c])
		}
		fmt.Println(strings.Join(vals, "\t"))
	}
}

func init() {
	askCmd.Flags().StringVar(&askStore, "store", "", "store to query (defaults to the only configured store)")
	rootCmd.AddCommand(askCmd)
}
