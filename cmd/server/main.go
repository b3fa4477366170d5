package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/approval"
	"github.com/adminchat/approvalgate/internal/audit"
	"github.com/adminchat/approvalgate/internal/config"
	"github.com/adminchat/approvalgate/internal/connector"
	"github.com/adminchat/approvalgate/internal/gate"
	"github.com/adminchat/approvalgate/internal/infrastructure/persistence/repository"
	"github.com/adminchat/approvalgate/internal/infrastructure/worker"
	"github.com/adminchat/approvalgate/internal/intent"
	httpserver "github.com/adminchat/approvalgate/internal/interfaces/http"
	"github.com/adminchat/approvalgate/internal/store"
	"github.com/adminchat/approvalgate/pkg/database"
	"github.com/adminchat/approvalgate/pkg/utils"
)

func main() {
	// Local overrides for development; missing file is fine
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

	logger.Info("Starting approval gate",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll("data", 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
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
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	auditRepo := repository.NewAuditRepository(db.DB, logger)

	auditSink := audit.NewSink(audit.Config{
		QueueSize:      cfg.Audit.QueueSize,
		ForwardTimeout: cfg.Audit.ForwardTimeout,
	}, auditRepo, logger)
	auditSink.Start()
	defer auditSink.Close()

	requestStore := store.New()
	controller := approval.NewController(requestStore, auditSink, logger)
	actionGate := gate.NewGate(controller, logger)

	gateway := connector.NewGateway(connector.Config{
		EmailURL:   cfg.Connectors.EmailURL,
		MeetingURL: cfg.Connectors.MeetingURL,
		TeamsURL:   cfg.Connectors.TeamsURL,
		Timeout:    cfg.Connectors.Timeout,
	}, logger)

	classifier := intent.NewClassifier()

	retention := worker.NewRetentionWorker(worker.RetentionConfig{
		SweepInterval:  cfg.Retention.SweepInterval,
		TerminalMaxAge: cfg.Retention.TerminalMaxAge,
		PendingMaxAge:  cfg.Retention.PendingMaxAge,
		AuditMaxAge:    cfg.Retention.AuditMaxAge,
	}, controller, auditRepo, logger)

	workers := worker.NewManager(logger)
	workers.Register(retention)
	if err := workers.StartAll(context.Background()); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, controller, actionGate, gateway, classifier, auditRepo, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workers.StopAll()

	logger.Info("Server exited")
}
