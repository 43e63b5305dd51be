package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/api"
	"github.com/solatis/flowkeeper/internal/core/auth"
	"github.com/solatis/flowkeeper/internal/core/config"
	"github.com/solatis/flowkeeper/internal/core/db"
	"github.com/solatis/flowkeeper/internal/core/job"
	"github.com/solatis/flowkeeper/internal/core/server"
	"github.com/solatis/flowkeeper/internal/metrics"
)

var adminAPICmd = &cobra.Command{
	Use:   "admin-api",
	Short: "Start the HTTP flow control rule admin API",
	RunE:  runAdminAPI,
}

func init() {
	rootCmd.AddCommand(adminAPICmd)
	adminAPICmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	adminAPICmd.Flags().Int("port", 8080, "HTTP server port")
	adminAPICmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

func runAdminAPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	database, queries, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.MigrateUp(ctx, database); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	if err := requireMigrated(ctx, database); err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set FK_HMAC_SECRET environment variable)")
	}

	authorizer, err := auth.NewAuthorizer(secrets, queries, cfg.AuthCacheTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to create authorizer: %w", err)
	}
	defer authorizer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	adminMetrics := metrics.New(registry)

	store, err := db.NewFlowCtrlStore(queries)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	service, err := api.NewAdminService(store, authorizer, cfg, logger, adminMetrics)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	httpServer, err := server.NewHTTPServer(cfg, service, registry, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if cfg.DigestCron != "" {
		digest, err := job.NewDigestJob(cfg.DigestCron, store, logger, adminMetrics)
		if err != nil {
			return fmt.Errorf("failed to create digest job: %w", err)
		}
		if _, err := digest.RunOnce(ctx); err != nil {
			logger.Warn("initial digest failed", zap.Error(err))
		}
		stopDigest, err := digest.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start digest job: %w", err)
		}
		defer stopDigest()
	}

	logger.Info("starting flowkeeper admin API", zap.String("version", Version), zap.String("addr", cfg.Addr()))
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		return httpServer.Shutdown(context.Background())
	}
}

// requireMigrated fails when any embedded migration is still pending.
func requireMigrated(ctx context.Context, database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'flowkeeper migrate up' first", s.ID)
		}
	}
	return nil
}
