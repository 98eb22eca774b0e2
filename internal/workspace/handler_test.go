package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanofresh/invoicer/internal/platform/httpx"
	"github.com/nanofresh/invoicer/internal/shared"
	"github.com/nanofresh/invoicer/internal/storage"
)

func newTestRouter(t *testing.T, h *harness) http.Handler {
	t.Helper()
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), h.svc, shared.NewCSRFManager("csrf-secret"), nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "ws-test"}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	handler.MountRoutes(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var view View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestHandlerGetInvoice(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	rec := do(t, router, http.MethodGet, "/invoice/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.NotEmpty(t, view.CSRFToken)
	assert.Equal(t, "5039", view.Invoice.InvoiceNo)
	assert.Equal(t, "TAX INVOICE", view.Document.Title)
}

func TestHandlerHeaderAndItems(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	rec := do(t, router, http.MethodPut, "/invoice/header", `{"invoiceNo":"8001","date":"2025-12-24","vatRate":0.1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, "8001", view.Invoice.InvoiceNo)
	assert.Equal(t, "24-12-25", view.Document.Date)

	rec = do(t, router, http.MethodPost, "/invoice/items", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var added ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	require.NotEmpty(t, added.Item.ID)

	rec = do(t, router, http.MethodPatch, "/invoice/items/"+added.Item.ID, `{"field":"quantity","value":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPatch, "/invoice/items/"+added.Item.ID, `{"field":"rate","value":"2.5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	item, ok := view.Invoice.Items.Find(added.Item.ID)
	require.True(t, ok)
	assert.Equal(t, 7.5, item.Amount)

	rec = do(t, router, http.MethodDelete, "/invoice/items/"+added.Item.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok = decodeView(t, rec).Invoice.Items.Find(added.Item.ID)
	assert.False(t, ok)
}

func TestHandlerRejectsInvalidBodies(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	cases := []struct {
		name, method, path, body string
	}{
		{"unknown field", http.MethodPut, "/invoice/header", `{"invoiceNo":"1","bogus":true}`},
		{"malformed", http.MethodPut, "/invoice/customer", `{"name":`},
		{"bad item field", http.MethodPatch, "/invoice/items/x", `{"field":"amount","value":1}`},
		{"bad logo url", http.MethodPut, "/invoice/company", `{"logoUrl":"not a url"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlerUnknownItemIsNoop(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)
	before := decodeView(t, do(t, router, http.MethodGet, "/invoice/", ""))

	rec := do(t, router, http.MethodPatch, "/invoice/items/missing", `{"field":"rate","value":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before.Invoice, decodeView(t, rec).Invoice)
}

func TestHandlerExport(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)
	exported := decodeView(t, do(t, router, http.MethodGet, "/invoice/", "")).Invoice

	rec := do(t, router, http.MethodPost, "/invoice/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="INVOICE_5039_SIP_AND_DI.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, exported.ID, rec.Header().Get("X-Invoice-Id"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = do(t, router, http.MethodGet, "/history/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, exported.ID, history.Items[0].ID)
	assert.Equal(t, storage.MaxHistory, history.Max)
}

func TestHandlerExportFailure(t *testing.T) {
	h := newHarness(t)
	h.raster.fail = errors.New("chromium crashed")
	router := newTestRouter(t, h)

	rec := do(t, router, http.MethodPost, "/invoice/export", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Failed to generate PDF", problem.Detail)
	assert.NotContains(t, rec.Body.String(), "chromium")
}

func TestHandlerExportConflict(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	var nested *httptest.ResponseRecorder
	h.raster.hook = func() {
		nested = do(t, router, http.MethodPost, "/invoice/export", "")
	}
	rec := do(t, router, http.MethodPost, "/invoice/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, nested)
	assert.Equal(t, http.StatusConflict, nested.Code)
}

func TestHandlerHistoryEntries(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	rec := do(t, router, http.MethodPost, "/history/missing/load", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	exported := decodeView(t, do(t, router, http.MethodGet, "/invoice/", "")).Invoice
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/invoice/export", "").Code)

	rec = do(t, router, http.MethodPost, "/history/"+exported.ID+"/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decodeView(t, rec)
	assert.NotEqual(t, exported.ID, loaded.Invoice.ID)
	assert.Equal(t, exported.InvoiceNo, loaded.Invoice.InvoiceNo)

	rec = do(t, router, http.MethodDelete, "/history/"+exported.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history.Items)
}

func TestHandlerPreviewAndStats(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(t, h)

	rec := do(t, router, http.MethodGet, "/invoice/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "SIP AND DINE")

	rec = do(t, router, http.MethodGet, "/storage/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats storage.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, storage.Stats{MaxHistory: storage.MaxHistory}, stats)
}

func TestHandlerRequiresSession(t *testing.T) {
	h := newHarness(t)
	handler := NewHandler(nil, h.svc, shared.NewCSRFManager("x"), nil)
	r := chi.NewRouter()
	handler.MountRoutes(r)

	rec := do(t, r, http.MethodGet, "/invoice/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportRateLimit(t *testing.T) {
	h := newHarness(t)
	handler := NewHandler(nil, h.svc, shared.NewCSRFManager("x"), ExportRateLimit(1))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), &shared.Session{ID: "ws-limited"})))
		})
	})
	handler.MountRoutes(r)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/invoice/export", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, http.MethodPost, "/invoice/export", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/invoice/", "").Code)
}
