package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milldesk/milldesk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate, and initialize Milldesk configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		for _, name := range cfg.StoreNames() {
			sc, _ := cfg.Store(name)
			fmt.Printf("  Store %s:\n", name)
			fmt.Printf("    Type:           %s\n", sc.Type)
			fmt.Printf("    Host:           %s\n", sc.Host)
			fmt.Printf("    Port:           %d\n", sc.Port)
			fmt.Printf("    Database:       %s\n", sc.Database)
			fmt.Printf("    Username:       %s\n", sc.Username)
			fmt.Printf("    Password:       %s\n", maskSecret(sc.Password))
			fmt.Printf("    Max Conns:      %d\n", sc.MaxConnections)
			fmt.Println()
		}
		fmt.Printf("  LLM:\n")
		fmt.Printf("    Model:          %s\n", cfg.LLM.Model)
		fmt.Printf("    API Key:        %s\n", maskSecret(cfg.LLM.APIKey))
		fmt.Println()
		fmt.Printf("  Guard:\n")
		fmt.Printf("    Allowed tables: %s\n", strings.Join(cfg.Guard.AllowedTables, ", "))
		fmt.Println()
		fmt.Printf("  Audit:\n")
		fmt.Printf("    Directory:      %s\n", cfg.Audit.Directory)
		if cfg.Audit.MongoURI != "" {
			fmt.Printf("    Mongo URI:      %s\n", maskSecret(cfg.Audit.MongoURI))
			fmt.Printf("    Mongo DB:       %s\n", cfg.Audit.MongoDatabase)
		}

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		var errors []string

		for _, name := range cfg.StoreNames() {
			sc, _ := cfg.Store(name)
			if sc.Type == "" {
				errors = append(errors, fmt.Sprintf("stores.%s.type is required", name))
			}
			if sc.Host == "" {
				errors = append(errors, fmt.Sprintf("stores.%s.host is required", name))
			}
			if sc.Database == "" {
				errors = append(errors, fmt.Sprintf("stores.%s.database is required", name))
			}
		}
		if len(cfg.Guard.AllowedTables) == 0 {
			errors = append(errors, "guard.allowed_tables must not be empty")
		}

		if len(errors) > 0 {
			fmt.Println("Validation errors:")
			for _, e := range errors {
				fmt.Printf("  - %s\n", e)
			}
			return fmt.Errorf("%d validation error(s)", len(errors))
		}

		fmt.Println("Configuration is valid.")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath
		}
		path = config.ExpandHome(path)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		cfg := &config.Config{
			Version: 1,
			Stores: map[string]config.StoreConfig{
				"hastings": {
					Type:     "postgresql",
					Host:     "localhost",
					Port:     5432,
					Database: "attendance",
					Username: "milldesk",
					Password: "${ENV:MILLDESK_DB_PASSWORD}",
				},
			},
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Wrote starter config to %s\n", path)
		fmt.Println("Edit it to add your mill databases, then run `milldesk dbtest`.")
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
