package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"koyeb-checker/internal/models"
)

// Defaults for the tunable knobs. The delay between accounts is deliberate
// throttling against Koyeb's abuse detection, not a retry mechanism.
const (
	DefaultLoginTimeout = 30 * time.Second
	DefaultAccountDelay = 5 * time.Second
)

// Load reads configuration from environment variables. Missing or malformed
// KOYEB_ACCOUNTS is fatal for the run; missing Telegram settings are not —
// the notifier degrades to a no-op. On error the Telegram fields are still
// populated so the entrypoint can notify about the configuration failure.
func Load() (models.Config, error) {
	cfg := models.Config{
		TelegramBotToken: os.Getenv("TG_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TG_CHAT_ID"),
		LoginTimeout:     DefaultLoginTimeout,
		AccountDelay:     DefaultAccountDelay,
	}

	if v := os.Getenv("LOGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid LOGIN_TIMEOUT %q: %w", v, err)
		}
		cfg.LoginTimeout = d
	}
	if v := os.Getenv("ACCOUNT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ACCOUNT_DELAY %q: %w", v, err)
		}
		cfg.AccountDelay = d
	}
	if v := os.Getenv("CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid CHECK_INTERVAL %q: %w", v, err)
		}
		cfg.CheckInterval = d
	}

	accounts, err := ParseAccounts(os.Getenv("KOYEB_ACCOUNTS"))
	if err != nil {
		return cfg, err
	}
	cfg.Accounts = accounts

	return cfg, nil
}

// ParseAccounts decodes the KOYEB_ACCOUNTS JSON array.
func ParseAccounts(raw string) ([]models.Account, error) {
	if raw == "" {
		return nil, fmt.Errorf("KOYEB_ACCOUNTS is not set")
	}

	var accounts []models.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("KOYEB_ACCOUNTS is not valid JSON: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("KOYEB_ACCOUNTS contains no accounts")
	}

	return accounts, nil
}
