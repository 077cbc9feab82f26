package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/service"
	"github.com/transitworks/fleetdesk/internal/config"
	"github.com/transitworks/fleetdesk/internal/infrastructure/notify"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/repository"
	"github.com/transitworks/fleetdesk/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/transitworks/fleetdesk/internal/interfaces/http"
	"github.com/transitworks/fleetdesk/internal/report"
	"github.com/transitworks/fleetdesk/pkg/database"
	"github.com/transitworks/fleetdesk/pkg/utils"
)

func main() {
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

	logger.Info("Starting Fleetdesk request coordination service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(database.Schema()); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	requestRepo := repository.NewRequestRepository(db.DB, txManager, logger)
	identityRepo := repository.NewIdentityRepository(db.DB, logger)
	facilityRepo := repository.NewFacilityRepository(db.DB, logger)
	auditRepo := repository.NewAuditLogRepository(db.DB, logger)

	serviceLogger := utils.NewSugarAdapter(logger)
	notifier := notify.NewLogNotifier(logger)

	auditService := service.NewAuditService(auditRepo, serviceLogger)
	workflowService := service.NewWorkflowService(
		requestRepo, identityRepo, auditService, notifier,
		serviceLogger, cfg.Workflow.MaxRetryAttempts,
	)
	identityService := service.NewIdentityService(identityRepo, auditService, serviceLogger)
	facilityService := service.NewFacilityService(facilityRepo, identityRepo, auditService, serviceLogger)
	reportService := service.NewReportService(
		requestRepo, identityRepo, report.NewExporter(logger), serviceLogger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := identityService.EnsureSeed(ctx, cfg.Seed.AdminID, cfg.Seed.AdminName); err != nil {
		logger.Fatal("Failed to seed admin identity", zap.Error(err))
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflowService, facilityService, identityService, auditService, reportService, serviceLogger)

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server terminated", zap.Error(err))
	}

	logger.Info("Server stopped")
}
