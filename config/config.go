package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ReconnectTimeout  time.Duration // grace period before an abandoned game is forfeited
	BotThinkDelay     time.Duration // artificial pause before the bot's reply is sent
	DefaultDifficulty string
	FrontendURL       string
	AllowedOrigins    []string
}

var AppConfig *Config

func LoadConfig() {
	reconnectTimeoutSec := GetEnvAsInt("RECONNECT_TIMEOUT_SECONDS", 30)
	botThinkDelayMs := GetEnvAsInt("BOT_THINK_DELAY_MS", 600)
	defaultDifficulty := GetEnv("DEFAULT_DIFFICULTY", "medium")
	frontendURL := GetEnv("FRONTEND_URL", "https://cubic.bernhaaard.dev")

	// Build allowed origins list
	allowedOrigins := []string{
		frontendURL,
		"http://localhost:5173", // Local development
	}

	AppConfig = &Config{
		ReconnectTimeout:  time.Duration(reconnectTimeoutSec) * time.Second,
		BotThinkDelay:     time.Duration(botThinkDelayMs) * time.Millisecond,
		DefaultDifficulty: defaultDifficulty,
		FrontendURL:       frontendURL,
		AllowedOrigins:    allowedOrigins,
	}

	log.Printf("Config loaded: ReconnectTimeout=%v, BotThinkDelay=%v, DefaultDifficulty=%s, AllowedOrigins=%v",
		AppConfig.ReconnectTimeout, AppConfig.BotThinkDelay, AppConfig.DefaultDifficulty, AppConfig.AllowedOrigins)
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
