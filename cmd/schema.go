package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var schemaStore string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the queryable schema of a store",
	Long:  `Introspect and print the allow-listed tables of a configured store.`,
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

		store := schemaStore
		if store == "" {
			names := cfg.StoreNames()
			if len(names) != 1 {
				return fmt.Errorf("multiple stores configured; pick one with --store (%s)",
					strings.Join(names, ", "))
			}
			store = names[0]
		}

		sch, err := runner.Describe(cmd.Context(), store)
		if err != nil {
			return fmt.Errorf("describing %s: %w", store, err)
		}

		fmt.Printf("Store: %s\n\n", sch.Store)
		fmt.Print(sch.RenderText())
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaStore, "store", "", "store to describe (defaults to the only configured store)")
	rootCmd.AddCommand(schemaCmd)
}
