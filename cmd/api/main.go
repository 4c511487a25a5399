package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Najnomics/lockedin-api/internal/config"
	"github.com/Najnomics/lockedin-api/internal/gateway"
	"github.com/Najnomics/lockedin-api/internal/handler"
	"github.com/Najnomics/lockedin-api/internal/mailer"
	"github.com/Najnomics/lockedin-api/internal/repository"
	"github.com/Najnomics/lockedin-api/internal/scheduler"
	"github.com/Najnomics/lockedin-api/internal/usecase"
	"github.com/Najnomics/lockedin-api/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, &logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, cleanup, err := newUserRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	whatsappGateway := gateway.NewWhatsAppGateway(logger)
	welcomeMailer := mailer.NewMailer(logger)

	reminderScheduler := scheduler.New(whatsappGateway, logger)
	reminderScheduler.Start(ctx)
	defer reminderScheduler.Stop()

	userUsecase := usecase.NewUserUsecase(userRepo, welcomeMailer, whatsappGateway, reminderScheduler, logger)

	if err := userUsecase.RestoreSchedules(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore reminder schedules")
	}

	v, err := validation.New()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewUserHandler(userUsecase, v, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("LockedIn API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newUserRepository(
	ctx context.Context,
	cfg *config.Config,
	logger *zerolog.Logger,
) (repository.UserRepository, func(), error) {
	switch cfg.UserStore {
	case config.StoreMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Error().Err(err).Msg("mongo disconnect failed")
			}
		}
		return repository.NewUserMongoRepository(ctx, logger, client.Database(cfg.DBName)), cleanup, nil

	case config.StoreSheets:
		return repository.NewUserSheetsRepository(ctx, logger), func() {}, nil

	case config.StoreMemory:
		logger.Warn().Msg("using in-memory user store; data is lost on restart")
		return repository.NewUserMemoryRepository(), func() {}, nil
	}

	// config.Load already rejected unknown stores.
	panic("unreachable user store " + cfg.UserStore)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
