package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/store"
)

var dbtestCmd = &cobra.Command{
	Use:   "dbtest [store...]",
	Short: "Test database connections",
	Long:  `Connect to the named stores, or all configured stores, and report the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			names = cfg.StoreNames()
		}

		failures := 0
		for _, name := range names {
			storeCfg, ok := cfg.Store(name)
			if !ok {
				fmt.Printf("  %-12s unknown store\n", name)
				failures++
				continue
			}

			start := time.Now()
			if err := testConnection(cmd.Context(), storeCfg); err != nil {
				fmt.Printf("  %-12s FAILED: %v\n", name, err)
				failures++
				continue
			}
			fmt.Printf("  %-12s ok (%s, %s)\n", name, storeCfg.Type, time.Since(start).Round(time.Millisecond))
		}

		if failures > 0 {
			return fmt.Errorf("%d connection(s) failed", failures)
		}
		return nil
	},
}

func testConnection(ctx context.Context, storeCfg config.StoreConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.Open(storeCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.Connect(ctx)
}

func init() {
	rootCmd.AddCommand(dbtestCmd)
}
