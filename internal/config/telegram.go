package config

type TelegramConfig struct {
	// Token is the bot token issued by BotFather.
	Token string
	// ChatID is the group chat receiving submission updates and reports.
	ChatID     int64
	APIBaseURL string
}

func NewTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		Token:      getEnv("TOKEN", ""),
		ChatID:     int64(getEnvAsInt("CHAT_ID", 0)),
		APIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
	}
}
