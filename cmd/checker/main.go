package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"koyeb-checker/internal/auth"
	"koyeb-checker/internal/config"
	"koyeb-checker/internal/notify"
	"koyeb-checker/internal/orchestrator"
	"koyeb-checker/internal/utils"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	fmt.Println("🚀 Koyeb Account Checker")
	fmt.Println(strings.Repeat("=", 60))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.SetupSignalHandling(cancel)

	cfg, err := config.Load()
	notifier := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, config.DefaultLoginTimeout)
	if err != nil {
		// Operators hear about total job failure too, not just
		// per-account failures.
		log.WithError(err).Error("❌ configuration error")
		notifier.Send(ctx, fmt.Sprintf("❌ Job failed: %v", err))
		os.Exit(1)
	}

	runner := orchestrator.NewBatchRunner(auth.NewLoginService(cfg.LoginTimeout), cfg.AccountDelay)
	scheduler := orchestrator.NewScheduler(cfg, runner, notifier)

	startTime := time.Now()
	scheduler.Start(ctx)

	fmt.Printf("🎉 Done in %s\n", utils.FormatDuration(time.Since(startTime)))
	fmt.Println(strings.Repeat("=", 60))
}
