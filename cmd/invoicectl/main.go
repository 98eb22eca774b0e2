// Command invoicectl inspects and manages stored workspaces from a shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/nanofresh/invoicer/internal/app"
	"github.com/nanofresh/invoicer/internal/platform/cache"
	"github.com/nanofresh/invoicer/report"
)

func main() {
	_ = godotenv.Load()
	cli := newApp(openFromEnv, os.Stdout)
	if err := cli.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "invoicectl:", err)
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg).With(slog.String("component", "invoicectl"))

	client, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return nil, err
	}
	service, err := app.BuildWorkspaceService(app.ServiceParams{
		Config:   cfg,
		Redis:    client,
		Renderer: report.NewClient(cfg.GotenbergURL),
		Logger:   logger,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &env{
		service: service,
		close: func(ctx context.Context) {
			service.Shutdown(ctx)
			_ = client.Close()
		},
	}, nil
}
