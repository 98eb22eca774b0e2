package export

import (
	"context"
	"math"

	"github.com/nanofresh/invoicer/report"
)

// GotenbergRasterizer captures HTML through Gotenberg's Chromium screenshot
// route.
type GotenbergRasterizer struct {
	client *report.Client
}

// NewGotenbergRasterizer wraps a report client.
func NewGotenbergRasterizer(client *report.Client) *GotenbergRasterizer {
	return &GotenbergRasterizer{client: client}
}

// Rasterize renders html at Width×Scale device pixels.
func (g *GotenbergRasterizer) Rasterize(ctx context.Context, html string, opts RasterOptions) ([]byte, error) {
	return g.client.Screenshot(ctx, html, opts.PixelWidth())
}

// PixelWidth is the capture width in device pixels.
func (o RasterOptions) PixelWidth() int {
	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}
	return int(math.Round(float64(o.Width) * scale))
}
