/*
main.go - Application entry point

PURPOSE:
  The shiftpay binary. Serves the HTTP API, applies database migrations
  and exports payroll workbooks from the command line.

COMMANDS:
  serve    Start the HTTP server (and the auto-finalize scheduler when
           payroll.auto_finalize is set)
  migrate  Apply pending migrations and print the schema version
  export   Write a period's payroll workbook to a file

STARTUP SEQUENCE (serve):
  1. Load config (file, .env, SHIFTPAY_* environment)
  2. Build the zap logger
  3. Open the SQLite store (migrates on open)
  4. Wire the payroll service, handler and router
  5. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests (server.shutdown_timeout)
  4. Close the database

EXAMPLES:
  shiftpay serve --config ./config/config.yaml
  SHIFTPAY_DB_PATH=":memory:" shiftpay serve
  shiftpay export --tenant acme --period 0c6f... --out september.xlsx

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warp/shiftpay/api"
	"github.com/warp/shiftpay/config"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/logger"
	"github.com/warp/shiftpay/payroll"
	"github.com/warp/shiftpay/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shiftpay",
		Short:         "Shift scheduling, attendance and payroll service",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./config/config.yaml or ./config.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newExportCmd(&configPath),
	)
	return root
}

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *sqlite.Store
	payroll *payroll.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	defaults, err := cfg.Payroll.Setting()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.DB.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	svc := payroll.NewService(store, log.Named("payroll"), payroll.Options{
		BatchLimit: cfg.Payroll.BatchLimit,
		Defaults:   defaults,
	})
	return &app{cfg: cfg, log: log, store: store, payroll: svc}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	handler := api.NewHandler(a.store, a.payroll, a.log.Named("api"), api.Options{})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	scheduler := api.NewFinalizeScheduler(a.store, a.payroll, a.log)
	scheduler.Enabled = cfg.Payroll.AutoFinalize
	scheduler.CheckInterval = cfg.Payroll.FinalizeInterval
	scheduler.GraceDays = cfg.Payroll.GraceDays
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("db", cfg.DB.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}

// =============================================================================
// MIGRATE
// =============================================================================

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := sqlite.Open(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := sqlite.Migrate(db, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCmd(configPath *string) *cobra.Command {
	var tenantID, periodID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a payroll period to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			buf, name, err := a.payroll.ExportPeriod(cmd.Context(), generic.TenantID(tenantID), payroll.PeriodID(periodID))
			if err != nil {
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&periodID, "period", "", "Payroll period id")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: payroll_<start>_<end>.xlsx)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}
