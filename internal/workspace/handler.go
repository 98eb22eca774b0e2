package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nanofresh/invoicer/internal/export"
	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/platform/httpx"
	"github.com/nanofresh/invoicer/internal/shared"
	"github.com/nanofresh/invoicer/internal/storage"
)

// exportFailedMessage is the single message shown for any export failure.
const exportFailedMessage = "Failed to generate PDF"

// Handler wires HTTP endpoints for the invoice editor.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	csrf      *shared.CSRFManager
	validator *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. exportLimit throttles the export route
// and may be nil.
func NewHandler(logger *slog.Logger, service *Service, csrf *shared.CSRFManager, exportLimit func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		csrf:      csrf,
		validator: validator.New(),
		rateLimit: exportLimit,
	}
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (string, bool) {
	ws, err := shared.WorkspaceFromContext(r.Context())
	if err != nil {
		h.logger.Error("workspace missing", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrForbidden, err))
		return "", false
	}
	return ws, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fieldErrs[0].Field()+": failed "+fieldErrs[0].Tag())
			return false
		}
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, view View) {
	if token, err := h.csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context())); err == nil {
		view.CSRFToken = token
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.Get(r.Context(), ws))
}

func (h *Handler) putHeader(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req HeaderRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.service.SetHeader(r.Context(), ws, Header{InvoiceNo: req.InvoiceNo, Date: req.Date, VATRate: req.VATRate}))
}

func (h *Handler) putCompany(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req invoice.CompanyDetails
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.service.SetCompany(r.Context(), ws, req))
}

func (h *Handler) putCustomer(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req invoice.CustomerDetails
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.service.SetCustomer(r.Context(), ws, req))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	item, view := h.service.AddItem(r.Context(), ws)
	if token, err := h.csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context())); err == nil {
		view.CSRFToken = token
	}
	httpx.JSON(w, http.StatusCreated, ItemResponse{Item: item, View: view})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req ItemUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	view := h.service.UpdateItem(r.Context(), ws, chi.URLParam(r, "id"), invoice.ItemField(req.Field), req.ValueString())
	h.respond(w, r, view)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.RemoveItem(r.Context(), ws, chi.URLParam(r, "id")))
}

func (h *Handler) newInvoice(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.NewInvoice(r.Context(), ws))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	html, err := h.service.Preview(r.Context(), ws)
	if err != nil {
		h.logger.Error("render preview", slog.String("workspace", ws), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	result, err := h.service.Export(r.Context(), ws, &export.Capture{})
	switch {
	case errors.Is(err, invoice.ErrExportInProgress):
		httpx.Problem(w, http.StatusConflict, "Conflict", "An export is already running")
		return
	case errors.Is(err, export.ErrExportFailed):
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", exportFailedMessage)
		return
	case err != nil:
		h.logger.Error("export", slog.String("workspace", ws), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.Header().Set("X-Invoice-Id", result.Committed.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.PDF)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, HistoryResponse{Items: h.service.History(r.Context(), ws), Max: storage.MaxHistory})
}

func (h *Handler) loadHistory(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadFromHistory(r.Context(), ws, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrHistoryNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, r, view)
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	items := h.service.DeleteFromHistory(r.Context(), ws, chi.URLParam(r, "id"))
	httpx.JSON(w, http.StatusOK, HistoryResponse{Items: items, Max: storage.MaxHistory})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Stats(r.Context(), ws))
}
