package report

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/platform/httpx"
	"github.com/nanofresh/invoicer/internal/preview"
)

// Sample configures the sample invoice capture. Width is the print width in
// CSS pixels and Scale the device pixel ratio of the capture.
type Sample struct {
	Renderer *preview.Renderer
	Template invoice.Template
	IDs      invoice.IDSource
	Width    int
	Scale    float64
}

// Handler serves renderer diagnostics.
type Handler struct {
	client *Client
	sample Sample
	logger *slog.Logger
}

// NewHandler creates a report handler. Without a sample renderer only /ping
// is mounted.
func NewHandler(client *Client, sample Sample, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, sample: sample, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	if h.sample.Renderer != nil && h.sample.IDs != nil {
		r.Get("/sample", h.renderSample)
	}
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "renderer unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renderSample captures the stock invoice under the print layout, the same
// image an export of a fresh draft starts from.
func (h *Handler) renderSample(w http.ResponseWriter, r *http.Request) {
	inv := h.sample.Template.Instantiate(h.sample.IDs, time.Now())
	layout := preview.PrintLayout(h.sample.Width, h.sample.Scale)
	html, err := h.sample.Renderer.Render(preview.Project(inv, inv.Totals()), layout)
	if err != nil {
		h.logger.Error("render sample invoice", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "render failed")
		return
	}

	width := int(math.Round(float64(h.sample.Width) * h.sample.Scale))
	img, err := h.client.Screenshot(r.Context(), html, width)
	if err != nil {
		h.logger.Warn("sample screenshot failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "renderer failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="sample-invoice.png"`)
	_, _ = w.Write(img)
}
