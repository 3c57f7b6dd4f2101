package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dispatch/cmd"
	dispatchhttp "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/taskrepo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/jobs"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB := mustConnectDB(configs)
	redisClient := mustConnectRedis(configs)

	app := cmd.NewCompositionRoot(configs, gormDB, redisClient, logger)

	jobManager := jobs.NewJobManager(
		app.CreateSweepExpiredCommandHandler(),
		commands.SweepPolicy(configs.SweepPolicy),
		configs.SweepBatchSize,
		configs.SweepInterval,
		logger,
	)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}

	e := echo.New()

	server := dispatchhttp.NewServer(
		app.CreateCreateTaskCommandHandler(),
		app.CreateOpenBroadcastCommandHandler(),
		app.CreateAcceptTaskCommandHandler(),
		app.CreateSweepExpiredCommandHandler(),
		app.CreateForceCloseBroadcastCommandHandler(),
		app.CreateCancelTaskCommandHandler(),
		app.CreateCreateCourierCommandHandler(),
		app.CreateReportLocationCommandHandler(),
		app.CreateReportProgressCommandHandler(),
		app.CreateGetOpenBroadcastsQueryHandler(),
		app.CreateGetBroadcastStatsQueryHandler(),
		dispatchhttp.BroadcastDefaults{
			RadiusKm:       configs.BroadcastRadiusKm,
			Window:         configs.BroadcastWindow,
			CandidateLimit: configs.BroadcastCandidateCap,
		},
		dispatchhttp.SweepSettings{
			Policy:     commands.SweepPolicy(configs.SweepPolicy),
			BatchLimit: configs.SweepBatchSize,
		},
		dispatchhttp.NewRateLimiter(configs.GeneralRateRPS, configs.GeneralRateBurst),
		dispatchhttp.NewRateLimiter(configs.AcceptRateRPS, configs.AcceptRateBurst),
	)
	server.RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil {
			logger.Info("http server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	jobManager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
}

func getConfigs() cmd.Config {
	config := cmd.Config{
		HTTPPort:   goDotEnvVariable("HTTP_PORT"),
		DBHost:     goDotEnvVariable("DB_HOST"),
		DBPort:     goDotEnvVariable("DB_PORT"),
		DBUser:     goDotEnvVariable("DB_USER"),
		DBPassword: goDotEnvVariable("DB_PASSWORD"),
		DBName:     goDotEnvVariable("DB_NAME"),
		DBSslMode:  goDotEnvVariable("DB_SSLMODE"),

		RedisAddr:     goDotEnvVariable("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SweepPolicy:    envString("SWEEP_POLICY", "escalate"),
		SweepInterval:  envDuration("SWEEP_INTERVAL", 5*time.Second),
		SweepBatchSize: envInt("SWEEP_BATCH_SIZE", 100),

		BroadcastRadiusKm:      envFloat("BROADCAST_RADIUS_KM", 5),
		BroadcastWindow:        envDuration("BROADCAST_WINDOW", time.Minute),
		BroadcastCandidateCap:  envInt("BROADCAST_CANDIDATE_CAP", 50),
		AcceptNotifyRadiusKm:   envFloat("ACCEPT_NOTIFY_RADIUS_KM", 10),
		RadiusBoostKmPerPrio:   envFloat("RADIUS_BOOST_KM_PER_PRIORITY", 1),
		WindowBoostPerPriority: envDuration("WINDOW_BOOST_PER_PRIORITY", 30*time.Second),
		MaxPriorityBoostSteps:  envInt("MAX_PRIORITY_BOOST_STEPS", 3),

		GeneralRateRPS:   envFloat("GENERAL_RATE_RPS", 50),
		GeneralRateBurst: envInt("GENERAL_RATE_BURST", 100),
		AcceptRateRPS:    envFloat("ACCEPT_RATE_RPS", 5),
		AcceptRateBurst:  envInt("ACCEPT_RATE_BURST", 10),
	}
	return config
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return d
}

func mustConnectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := gormDB.AutoMigrate(&taskrepo.TaskDTO{}, &courierrepo.CourierDTO{}); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	return gormDB
}

func mustConnectRedis(configs cmd.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     configs.RedisAddr,
		Password: configs.RedisPassword,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Error connecting to redis: %v", err)
	}
	return client
}
