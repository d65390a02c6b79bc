package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/activity"
	"github.com/garyjia/po-dashboard/internal/backend"
	"github.com/garyjia/po-dashboard/internal/config"
	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/export"
	httpiface "github.com/garyjia/po-dashboard/internal/interfaces/http"
	"github.com/garyjia/po-dashboard/internal/service"
	"github.com/garyjia/po-dashboard/pkg/database"
	"github.com/garyjia/po-dashboard/pkg/utils"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting PO dashboard",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("backend_configured", cfg.Backend.BaseURL != ""))
	if cfg.Backend.BaseURL == "" {
		logger.Warn("Backend base URL is not set; operations will report configuration errors")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open local store", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	errors := errlog.New()
	activityCache := activity.NewCache(db.DB, logger)
	auditStore := service.NewAuditStore(db.DB, logger)
	notifier := &logNotifier{logger: logger}
	auditLogger := service.NewAuditLogger(client, auditStore, notifier, logger)

	invoiceService := service.NewInvoiceService(client, errors, logger)
	reminderService := service.NewReminderService(client, auditLogger, activityCache, errors, logger)
	dispatchService := service.NewDispatchService(client, auditLogger, errors, logger)
	metricsService := service.NewMetricsService(auditStore, errors, logger)
	excelWriter := export.NewExcelWriter(logger)

	handlers := httpiface.NewHandlers(
		invoiceService,
		reminderService,
		dispatchService,
		errors,
		metricsService,
		excelWriter,
		logger,
	)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// logNotifier is the notification side-channel. The browser UI shows these
// as toasts; server-side they land in the log at the matching level.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) Notify(level, message string) {
	switch level {
	case "error":
		n.logger.Error(message)
	case "warning":
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}
