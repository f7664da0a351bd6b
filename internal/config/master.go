package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DebugMode        bool
	ServerConfig     *ServerConfig
	RedisConfig      *RedisConfig
	PostgresConfig   *PostgresConfig
	TelegramConfig   *TelegramConfig
	CodeforcesConfig *CodeforcesConfig
	PollCfg          *PollCfg
	ClistConfig      *ClistConfig
	PredictorConfig  *PredictorConfig
	TaskQueueConfig  *TaskQueueConfig
}

func NewSystemConfig() *AppConfig {
	// Missing .env is fine, deployments set real environment variables.
	_ = godotenv.Load()

	return &AppConfig{
		DebugMode:        os.Getenv("DEBUG_MODE") == "true",
		ServerConfig:     NewServerConfig(),
		RedisConfig:      NewRedisConfig(),
		PostgresConfig:   NewPostgresConfig(),
		TelegramConfig:   NewTelegramConfig(),
		CodeforcesConfig: NewCodeforcesConfig(),
		PollCfg:          NewPollCfg(),
		ClistConfig:      NewClistConfig(),
		PredictorConfig:  NewPredictorConfig(),
		TaskQueueConfig:  NewTaskQueueConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}
