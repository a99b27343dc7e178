package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/milldesk/milldesk/internal/api"
	"github.com/milldesk/milldesk/internal/audit"
	"github.com/milldesk/milldesk/internal/ws"
)

var servePort int
var serveDevMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the query API on localhost. Dashboards talk to it over REST and
watch the live audit feed over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		hub := ws.NewHub(logger)
		hub.SetStoresProvider(func() ([]byte, error) {
			return json.Marshal(cfg.StoreNames())
		})
		go hub.Run()

		// Tee the audit trail into the hub so dashboards see every
		// pipeline transition as it happens.
		feedSink := audit.SinkFunc(func(e audit.Entry) error {
			hub.BroadcastAuditEvent(e)
			return nil
		})

		runner, auditLog, err := buildRunner(cfg, logger, feedSink)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		srv := api.New(cfg, runner, logger, servePort,
			api.WithHub(hub),
			api.WithDevMode(serveDevMode),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		fmt.Fprintf(os.Stderr, "Milldesk API: http://localhost:%d\n", servePort)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8310, "port for the API server")
	serveCmd.Flags().BoolVar(&serveDevMode, "dev", false, "enable CORS for development mode")
	rootCmd.AddCommand(serveCmd)
}
