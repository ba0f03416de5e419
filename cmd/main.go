package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data"
	"github.com/KotFed0t/portfolio_tracker/data/cache"
	"github.com/KotFed0t/portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi/moexApi"
	"github.com/KotFed0t/portfolio_tracker/internal/httpserver"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/chartGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/scheduler"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/portfolio_tracker/internal/tgbot"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/rest"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	moexApiClient := moexApi.New(cfg)

	var cloudStorage portfolioService.CloudStorage
	if cfg.GoogleDrive.CredentialsFile != "" {
		driveApi, err := googleDriveApi.New(ctx, cfg)
		if err != nil {
			slog.Error("failed to init google drive, uploads disabled", slog.String("err", err.Error()))
		} else {
			cloudStorage = driveApi
		}
	}

	portfolioSrv := portfolioService.New(
		cfg,
		pgRepo,
		redisCache,
		moexApiClient,
		xslsxGenerator.New(),
		chartGenerator.New(),
		cloudStorage,
	)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh prices", portfolioSrv.RefreshPrices, cfg.Jobs.RefreshPricesInterval, true)
	sched.NewIntervalJob("cleanup reports", portfolioSrv.CleanupReports, cfg.Jobs.CleanupReportsInterval, false)
	sched.Start()
	defer sched.Stop()

	httpServer := httpserver.New(cfg, rest.NewRouter(rest.NewController(portfolioSrv)))
	httpServer.Start()
	defer httpServer.Stop()

	if cfg.Telegram.Enabled {
		tgController := telegram.NewController(cfg, portfolioSrv, redisSession)

		tgBot := tgbot.New(cfg, tgController)
		tgBot.Start()
		defer tgBot.Stop()
	}

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
	slog.Info("shutting down")
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
