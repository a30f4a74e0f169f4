package models

import "time"

// Config represents the application configuration
type Config struct {
	Accounts []Account

	TelegramBotToken string
	TelegramChatID   string

	LoginTimeout  time.Duration
	AccountDelay  time.Duration
	CheckInterval time.Duration
}
