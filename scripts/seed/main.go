// Command seed writes a demo workspace (one draft, a full history) into
// Redis so the editor has something to show right away.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/platform/cache"
	"github.com/nanofresh/invoicer/internal/storage"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()
	workspace := getenv("SEED_WORKSPACE", "demo")

	client, err := cache.New(ctx, cache.Options{Addr: getenv("REDIS_ADDR", "127.0.0.1:6379")})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer client.Close()

	ids, err := invoice.NewGenerator(1023)
	if err != nil {
		log.Fatalf("id generator: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	gateway := storage.NewGateway(storage.NewRepository(client, storage.RepositoryOptions{}), logger)
	template := invoice.DefaultTemplate()

	fmt.Println("→ Seeding history...")
	start := time.Now().UTC().AddDate(0, 0, -storage.MaxHistory)
	for i := 0; i < storage.MaxHistory; i++ {
		day := start.AddDate(0, 0, i)
		inv := template.Instantiate(ids, day)
		inv.InvoiceNo = fmt.Sprintf("%d", 5036+i)
		gateway.SaveToHistory(ctx, workspace, inv.Committed(day.Add(17*time.Hour)))
	}

	fmt.Println("→ Seeding draft...")
	gateway.SaveDraft(ctx, workspace, template.Instantiate(ids, time.Now()))

	stats := gateway.Stats(ctx, workspace)
	fmt.Printf("✓ workspace %q: draft=%t history=%d/%d\n", workspace, stats.HasDraft, stats.HistoryCount, stats.MaxHistory)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
