// Package export turns the working invoice of an editor into a downloadable
// PDF: the print layout is rendered, rasterized by a headless browser and
// laid out onto pages.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/preview"
)

// ErrExportFailed wraps any failure after the export started.
var ErrExportFailed = errors.New("export: failed to generate PDF")

// Print layout defaults.
const (
	DefaultPrintWidth = 794
	DefaultScale      = 4.0
)

// RasterOptions describes the capture viewport.
type RasterOptions struct {
	Width int
	Scale float64
}

// Rasterizer converts rendered HTML into an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string, opts RasterOptions) ([]byte, error)
}

// DocumentBuilder lays an image onto PDF pages.
type DocumentBuilder interface {
	Build(img []byte) ([]byte, error)
}

// Downloader receives the finished document.
type Downloader interface {
	Download(ctx context.Context, filename string, pdf []byte) error
}

// DownloaderFunc adapts a function to Downloader.
type DownloaderFunc func(ctx context.Context, filename string, pdf []byte) error

// Download calls f.
func (f DownloaderFunc) Download(ctx context.Context, filename string, pdf []byte) error {
	return f(ctx, filename, pdf)
}

// Capture keeps the document in memory, for callers that write it later.
type Capture struct {
	Filename string
	PDF      []byte
}

// Download stores the document.
func (c *Capture) Download(_ context.Context, filename string, pdf []byte) error {
	c.Filename = filename
	c.PDF = pdf
	return nil
}

// DirDownloader writes documents into a directory.
type DirDownloader struct {
	Dir string
}

// Download writes pdf to Dir/filename.
func (d DirDownloader) Download(_ context.Context, filename string, pdf []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.Dir, filename), pdf, 0o644)
}

// Config controls the print layout.
type Config struct {
	PrintWidth int
	Scale      float64
}

// Result describes a successful export.
type Result struct {
	Filename  string
	PDF       []byte
	Committed invoice.Invoice
	Next      invoice.Invoice
}

// Pipeline orchestrates one export.
type Pipeline struct {
	rasterizer Rasterizer
	builder    DocumentBuilder
	cfg        Config
	logger     *slog.Logger
}

// NewPipeline constructs a pipeline.
func NewPipeline(rasterizer Rasterizer, builder DocumentBuilder, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.PrintWidth <= 0 {
		cfg.PrintWidth = DefaultPrintWidth
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{rasterizer: rasterizer, builder: builder, cfg: cfg, logger: logger}
}

// Run exports the working invoice of editor. invoice.ErrExportInProgress is
// returned unwrapped when another export is running. Any later failure puts
// the editor back into the draft state and is wrapped in ErrExportFailed.
func (p *Pipeline) Run(ctx context.Context, editor *invoice.Editor, target *preview.Target, downloader Downloader) (Result, error) {
	snapshot, err := editor.BeginExport()
	if err != nil {
		return Result{}, err
	}

	filename := Filename(snapshot)
	pdf, err := p.render(ctx, snapshot, target)
	if err == nil {
		err = downloader.Download(ctx, filename, pdf)
	}
	if err != nil {
		editor.FailExport()
		p.logger.Error("export failed",
			slog.String("invoice_id", snapshot.ID),
			slog.Any("error", err),
		)
		return Result{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	committed, next, err := editor.CompleteExport()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	p.logger.Info("invoice exported",
		slog.String("invoice_id", committed.ID),
		slog.String("filename", filename),
		slog.Int("bytes", len(pdf)),
	)
	return Result{Filename: filename, PDF: pdf, Committed: committed, Next: next}, nil
}

func (p *Pipeline) render(ctx context.Context, snapshot invoice.Invoice, target *preview.Target) ([]byte, error) {
	doc := preview.Project(snapshot, snapshot.Totals())

	restore := target.Override(preview.PrintLayout(p.cfg.PrintWidth, p.cfg.Scale))
	defer restore()
	html, err := target.HTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	img, err := p.rasterizer.Rasterize(ctx, html, RasterOptions{Width: p.cfg.PrintWidth, Scale: p.cfg.Scale})
	restore()
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	pdf, err := p.builder.Build(img)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return pdf, nil
}
