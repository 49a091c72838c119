package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"nearshield/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (store + use cases + HTTP routes).
// 3) Serve until SIGINT/SIGTERM.
func main() {
	log.Println("nearshield api starting")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("nearshield api stopped with error: %v", err)
	}
}
