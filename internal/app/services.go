package app

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nanofresh/invoicer/internal/export"
	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/observability"
	"github.com/nanofresh/invoicer/internal/preview"
	"github.com/nanofresh/invoicer/internal/storage"
	"github.com/nanofresh/invoicer/internal/workspace"
	"github.com/nanofresh/invoicer/report"
)

// ServiceParams groups what BuildWorkspaceService needs beyond config.
type ServiceParams struct {
	Config   *Config
	Redis    *redis.Client
	Renderer *report.Client
	Archiver workspace.Archiver
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// BuildWorkspaceService wires storage, preview and export into a
// workspace.Service. The server and the operator CLI share it.
func BuildWorkspaceService(p ServiceParams) (*workspace.Service, error) {
	cfg := p.Config
	renderer, err := preview.NewRenderer()
	if err != nil {
		return nil, err
	}
	ids, err := invoice.NewGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("app: id generator: %w", err)
	}

	repo := storage.NewRepository(p.Redis, storage.RepositoryOptions{DraftTTL: cfg.DraftTTL})
	opts := []storage.GatewayOption{}
	if p.Metrics != nil {
		opts = append(opts, storage.WithMetrics(p.Metrics))
	}
	gateway := storage.NewGateway(repo, p.Logger, opts...)

	pipeline := export.NewPipeline(
		export.NewGotenbergRasterizer(p.Renderer),
		export.NewPDFBuilder(cfg.ExportPageFormat),
		cfg.ExportConfig(),
		p.Logger,
	)

	return workspace.NewService(workspace.Deps{
		Gateway:       gateway,
		Pipeline:      pipeline,
		Renderer:      renderer,
		IDs:           ids,
		Template:      invoice.DefaultTemplate(),
		AutosaveDelay: cfg.AutosaveDelay,
		IdleTTL:       cfg.WorkspaceIdleTTL,
		Archiver:      p.Archiver,
		Metrics:       p.Metrics,
		Logger:        p.Logger,
	}), nil
}

// BuildReportHandler wires the renderer diagnostics, including the sample
// invoice capture at the configured print layout.
func BuildReportHandler(cfg *Config, client *report.Client, logger *slog.Logger) (*report.Handler, error) {
	renderer, err := preview.NewRenderer()
	if err != nil {
		return nil, err
	}
	ids, err := invoice.NewGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("app: id generator: %w", err)
	}
	layout := cfg.ExportConfig()
	if layout.PrintWidth <= 0 {
		layout.PrintWidth = export.DefaultPrintWidth
	}
	if layout.Scale <= 0 {
		layout.Scale = export.DefaultScale
	}
	return report.NewHandler(client, report.Sample{
		Renderer: renderer,
		Template: invoice.DefaultTemplate(),
		IDs:      ids,
		Width:    layout.PrintWidth,
		Scale:    layout.Scale,
	}, logger), nil
}
