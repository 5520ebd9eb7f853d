package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECONNECT_TIMEOUT_SECONDS", "")
	t.Setenv("BOT_THINK_DELAY_MS", "")
	t.Setenv("DEFAULT_DIFFICULTY", "")

	LoadConfig()

	if AppConfig.ReconnectTimeout != 30*time.Second {
		t.Fatalf("ReconnectTimeout = %v, want 30s", AppConfig.ReconnectTimeout)
	}
	if AppConfig.BotThinkDelay != 600*time.Millisecond {
		t.Fatalf("BotThinkDelay = %v, want 600ms", AppConfig.BotThinkDelay)
	}
	if AppConfig.DefaultDifficulty != "medium" {
		t.Fatalf("DefaultDifficulty = %q, want medium", AppConfig.DefaultDifficulty)
	}
	if len(AppConfig.AllowedOrigins) == 0 {
		t.Fatalf("AllowedOrigins is empty")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RECONNECT_TIMEOUT_SECONDS", "5")
	t.Setenv("BOT_THINK_DELAY_MS", "1")
	t.Setenv("DEFAULT_DIFFICULTY", "hard")

	LoadConfig()

	if AppConfig.ReconnectTimeout != 5*time.Second {
		t.Fatalf("ReconnectTimeout = %v, want 5s", AppConfig.ReconnectTimeout)
	}
	if AppConfig.BotThinkDelay != time.Millisecond {
		t.Fatalf("BotThinkDelay = %v, want 1ms", AppConfig.BotThinkDelay)
	}
	if AppConfig.DefaultDifficulty != "hard" {
		t.Fatalf("DefaultDifficulty = %q, want hard", AppConfig.DefaultDifficulty)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("CONFIG_TEST_INT", "42")
	if got := GetEnvAsInt("CONFIG_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvAsInt = %d, want 42", got)
	}

	t.Setenv("CONFIG_TEST_INT", "not a number")
	if got := GetEnvAsInt("CONFIG_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvAsInt on junk = %d, want the default 7", got)
	}

	t.Setenv("CONFIG_TEST_INT", "")
	if got := GetEnvAsInt("CONFIG_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvAsInt on empty = %d, want the default 7", got)
	}
}
