package workspace

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/nanofresh/invoicer/internal/shared"
)

// MountRoutes registers the editor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoice", func(r chi.Router) {
		r.Get("/", h.getInvoice)
		r.Put("/header", h.putHeader)
		r.Put("/company", h.putCompany)
		r.Put("/customer", h.putCustomer)
		r.Post("/items", h.addItem)
		r.Patch("/items/{id}", h.updateItem)
		r.Delete("/items/{id}", h.removeItem)
		r.Post("/new", h.newInvoice)
		r.Get("/preview", h.preview)
		r.Group(func(r chi.Router) {
			if h.rateLimit != nil {
				r.Use(h.rateLimit)
			}
			r.Post("/export", h.exportPDF)
		})
	})
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.listHistory)
		r.Post("/{id}/load", h.loadHistory)
		r.Delete("/{id}", h.deleteHistory)
	})
	r.Get("/storage/stats", h.stats)
}

// ExportRateLimit throttles exports per workspace, falling back to the
// client address for requests without a session.
func ExportRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	return httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		if ws, err := shared.WorkspaceFromContext(r.Context()); err == nil {
			return "ws:" + ws, nil
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
}
