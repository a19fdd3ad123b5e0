package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"adboard/internal/app/bootstrap"
)

// Bot process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Long-poll Telegram for photo collection and moderation updates.
func main() {
	app, err := bootstrap.BuildBot()
	if err != nil {
		log.Fatalf("bootstrap bot failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("adboard bot stopped with error: %v", err)
	}
}
