package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/cfwarrior/tgbot/internal/adapter/clist"
	"github.com/cfwarrior/tgbot/internal/adapter/codeforces"
	"github.com/cfwarrior/tgbot/internal/adapter/postgres/bindingrepository"
	"github.com/cfwarrior/tgbot/internal/adapter/postgres/verificationrepository"
	"github.com/cfwarrior/tgbot/internal/adapter/predictor"
	"github.com/cfwarrior/tgbot/internal/adapter/redis/statusport"
	"github.com/cfwarrior/tgbot/internal/adapter/taskqueue"
	"github.com/cfwarrior/tgbot/internal/adapter/telegram"
	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/services/contests"
	"github.com/cfwarrior/tgbot/internal/core/services/delta"
	"github.com/cfwarrior/tgbot/internal/core/services/digester"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
	"github.com/cfwarrior/tgbot/internal/core/services/verification"
	logger2 "github.com/cfwarrior/tgbot/internal/global/logger"
	"github.com/cfwarrior/tgbot/internal/handlers"
	http2 "github.com/cfwarrior/tgbot/internal/http"
	"github.com/cfwarrior/tgbot/internal/schedulerengine"
)

func main() {
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting cfbot service")

	logger := logger2.Logger

	sysCfg := config.NewSystemConfig()

	db, err := setupDatabase(sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	chatID := sysCfg.TelegramConfig.ChatID

	// SECONDARY PORTS
	statusRepo := statusport.NewStatusRepository(redisClient, logger)
	bindingRepo := bindingrepository.New(db, logger)
	verificationRepo := verificationrepository.New(db, logger)
	cfClient := codeforces.NewClient(sysCfg.CodeforcesConfig, logger)
	clistClient := clist.NewClient(sysCfg.ClistConfig, logger)
	predictorScraper := predictor.NewScraper(sysCfg.PredictorConfig, logger)
	bot := telegram.NewBot(sysCfg.TelegramConfig, logger)
	dispatcher := taskqueue.NewDispatcher(sysCfg.TaskQueueConfig, logger)

	// services
	trackerSvc := tracker.NewTrackerService(statusRepo, cfClient, bot, logger, sysCfg.PollCfg, chatID)
	deltaSvc := delta.NewDeltaService(trackerSvc, cfClient, predictorScraper, bot, logger)
	contestSvc := contests.NewContestService(clistClient, bot, logger, sysCfg.PollCfg, chatID)
	verificationSvc := verification.NewVerificationService(
		verificationRepo, bindingRepo, cfClient, bot, dispatcher, trackerSvc, logger, chatID,
	)
	digesterSvc := digester.NewDigesterService(
		cfClient, bindingRepo, bot, dispatcher, contestSvc, deltaSvc, verificationSvc, logger, chatID,
	)

	serviceProvider := http2.NewServiceProvider(
		trackerSvc, deltaSvc, digesterSvc, verificationSvc, bindingRepo, bot,
	)
	middleware := handlers.NewMiddlewareProvider(sysCfg.ServerConfig, sysCfg.TaskQueueConfig, logger)

	// server
	httpServer := http2.NewServer(sysCfg.ServerConfig.Port, "cfbot", *serviceProvider, middleware, logger, chatID)
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to initialize http server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	httpServer.Start(ctx)

	publishCommands(ctx, bot, logger)

	engine := schedulerengine.NewBackgroundEngine(trackerSvc, contestSvc, logger)
	engine.Start(ctx)

	<-quit
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Stop(shutdownCtx)
	engine.Wait()

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// publishCommands refreshes the bot command menu. Best-effort, the menu
// is cosmetic.
func publishCommands(ctx context.Context, bot *telegram.Bot, logger primary.Logger) {
	commands := []telegram.Command{
		{Command: "select", Description: "Pick a random problem"},
		{Command: "tags", Description: "List problem tags"},
		{Command: "stalk", Description: "Show a member's profile"},
		{Command: "contests", Description: "Upcoming contests"},
		{Command: "delta", Description: "Rating changes for the latest contest"},
		{Command: "sign_on", Description: "Bind your Codeforces handle"},
		{Command: "help", Description: "Show help"},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := bot.SetMyCommands(ctx, commands); err != nil {
		logger.Warn("Failed to publish command menu", "error", err)
	}
}
