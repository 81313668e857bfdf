package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/newomen/newme-backend/internal/app"
	"github.com/newomen/newme-backend/internal/observability"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	shutdownOTel := observability.InitOTel(context.Background(), a.Log, observability.OtelConfig{
		ServiceName: "newme-backend",
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(ctx); err != nil {
				a.Log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	if err := a.Start(); err != nil {
		a.Log.Error("Could not start background workers", "error", err)
		os.Exit(1)
	}

	a.Log.Info("Server listening", "port", a.Cfg.Port)
	if err := a.Run(":" + a.Cfg.Port); err != nil {
		a.Log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
