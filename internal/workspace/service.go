// Package workspace serves the invoice editor over HTTP. Each browser
// session owns one workspace: a live editor, its preview render target and
// the persisted draft and history.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nanofresh/invoicer/internal/export"
	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/observability"
	"github.com/nanofresh/invoicer/internal/preview"
	"github.com/nanofresh/invoicer/internal/storage"
	"github.com/nanofresh/invoicer/jobs"
)

// ErrHistoryNotFound is returned when a history entry does not exist.
var ErrHistoryNotFound = errors.New("workspace: history entry not found")

// Archiver queues exported documents for long-term storage.
type Archiver interface {
	EnqueueArchive(ctx context.Context, payload jobs.ArchivePayload) error
}

// View is the state returned to the editor after every read or mutation.
type View struct {
	Invoice   invoice.Invoice  `json:"invoice"`
	Totals    invoice.Totals   `json:"totals"`
	Document  preview.Document `json:"document"`
	State     invoice.State    `json:"state"`
	CSRFToken string           `json:"csrfToken,omitempty"`
}

// Header holds the invoice header fields.
type Header struct {
	InvoiceNo string
	Date      string
	VATRate   float64
}

// Deps collects the collaborators of a Service.
type Deps struct {
	Gateway       *storage.Gateway
	Pipeline      *export.Pipeline
	Renderer      *preview.Renderer
	IDs           invoice.IDSource
	Template      invoice.Template
	AutosaveDelay time.Duration
	IdleTTL       time.Duration
	Archiver      Archiver
	Metrics       *observability.Metrics
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Service implements the workspace operations.
type Service struct {
	registry *Registry
	autosave *Autosaver
	gateway  *storage.Gateway
	pipeline *export.Pipeline
	renderer *preview.Renderer
	ids      invoice.IDSource
	template invoice.Template
	archiver Archiver
	metrics  *observability.Metrics
	logger   *slog.Logger
	idleTTL  time.Duration
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	s := &Service{
		gateway:  deps.Gateway,
		pipeline: deps.Pipeline,
		renderer: deps.Renderer,
		ids:      deps.IDs,
		template: deps.Template,
		archiver: deps.Archiver,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		idleTTL:  deps.IdleTTL,
		now:      deps.Clock,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.registry = NewRegistry(s.open, s.now)
	s.autosave = NewAutosaver(deps.AutosaveDelay, s.saveDraft, deps.Metrics)
	return s
}

// open builds a workspace, restoring the stored draft when there is one.
func (s *Service) open(ctx context.Context, id string) *Workspace {
	editor := invoice.NewEditor(invoice.EditorOptions{IDs: s.ids, Template: s.template, Clock: s.now})
	if draft, ok := s.gateway.LoadDraft(ctx, id); ok {
		editor.Restore(draft)
		s.logger.Debug("draft restored", slog.String("workspace", id), slog.String("invoice_id", draft.ID))
	}
	ws := &Workspace{ID: id, Editor: editor, Target: preview.NewTarget(s.renderer)}
	s.metrics.SetWorkspaces(s.registry.Len() + 1)
	return ws
}

func (s *Service) saveDraft(ctx context.Context, id string) {
	ws, ok := s.registry.Lookup(id)
	if !ok {
		return
	}
	inv, _ := ws.Editor.Snapshot()
	s.gateway.SaveDraft(ctx, id, inv)
}

func (s *Service) view(inv invoice.Invoice, state invoice.State) View {
	totals := inv.Totals()
	return View{Invoice: inv, Totals: totals, Document: preview.Project(inv, totals), State: state}
}

func (s *Service) current(ws *Workspace) View {
	inv, state := ws.Editor.Snapshot()
	return s.view(inv, state)
}

// edited schedules an autosave and returns the fresh view.
func (s *Service) edited(ws *Workspace) View {
	s.autosave.Schedule(ws.ID)
	return s.current(ws)
}

// Get returns the working invoice of a workspace.
func (s *Service) Get(ctx context.Context, id string) View {
	return s.current(s.registry.Get(ctx, id))
}

// SetHeader updates the invoice number, date and VAT rate.
func (s *Service) SetHeader(ctx context.Context, id string, h Header) View {
	ws := s.registry.Get(ctx, id)
	ws.Editor.UpdateHeader(h.InvoiceNo, h.Date, h.VATRate)
	return s.edited(ws)
}

// SetCompany replaces the seller details.
func (s *Service) SetCompany(ctx context.Context, id string, c invoice.CompanyDetails) View {
	ws := s.registry.Get(ctx, id)
	ws.Editor.SetCompany(c)
	return s.edited(ws)
}

// SetCustomer replaces the customer details.
func (s *Service) SetCustomer(ctx context.Context, id string, c invoice.CustomerDetails) View {
	ws := s.registry.Get(ctx, id)
	ws.Editor.SetCustomer(c)
	return s.edited(ws)
}

// AddItem appends an empty line item.
func (s *Service) AddItem(ctx context.Context, id string) (invoice.LineItem, View) {
	ws := s.registry.Get(ctx, id)
	item, _ := ws.Editor.AddItem()
	return item, s.edited(ws)
}

// UpdateItem edits one field of a line item. Unknown ids leave the invoice
// unchanged and schedule nothing.
func (s *Service) UpdateItem(ctx context.Context, id, itemID string, field invoice.ItemField, value string) View {
	ws := s.registry.Get(ctx, id)
	if _, ok := ws.Editor.UpdateItem(itemID, field, value); !ok {
		return s.current(ws)
	}
	return s.edited(ws)
}

// RemoveItem deletes a line item. Unknown ids are a no-op.
func (s *Service) RemoveItem(ctx context.Context, id, itemID string) View {
	ws := s.registry.Get(ctx, id)
	if _, ok := ws.Editor.RemoveItem(itemID); !ok {
		return s.current(ws)
	}
	return s.edited(ws)
}

// NewInvoice discards the draft and starts a fresh invoice.
func (s *Service) NewInvoice(ctx context.Context, id string) View {
	ws := s.registry.Get(ctx, id)
	s.autosave.Cancel(id)
	s.gateway.ClearDraft(ctx, id)
	ws.Editor.Reset()
	return s.edited(ws)
}

// Preview renders the live preview HTML.
func (s *Service) Preview(ctx context.Context, id string) (string, error) {
	ws := s.registry.Get(ctx, id)
	inv, _ := ws.Editor.Snapshot()
	return ws.Target.HTML(preview.Sync(inv))
}

// Export runs the export pipeline and hands the document to downloader.
// Only after a successful download is the exported invoice committed to
// history, the draft slot cleared and the new draft scheduled for saving.
// The commit outlives a cancelled request: by then the editor has already
// moved on to the new draft.
func (s *Service) Export(ctx context.Context, id string, downloader export.Downloader) (export.Result, error) {
	ws := s.registry.Get(ctx, id)
	started := s.now()

	result, err := s.pipeline.Run(ctx, ws.Editor, ws.Target, downloader)
	switch {
	case errors.Is(err, invoice.ErrExportInProgress):
		s.metrics.ObserveExport(observability.ResultBusy, 0)
		return export.Result{}, err
	case err != nil:
		s.metrics.ObserveExport(observability.ResultFailure, s.now().Sub(started))
		return export.Result{}, err
	}
	s.metrics.ObserveExport(observability.ResultSuccess, s.now().Sub(started))

	commitCtx := context.WithoutCancel(ctx)
	s.autosave.Cancel(id)
	s.gateway.SaveToHistory(commitCtx, id, result.Committed)
	s.autosave.Schedule(id)

	if s.archiver != nil {
		payload := jobs.ArchivePayload{
			Workspace:  id,
			InvoiceID:  result.Committed.ID,
			Filename:   result.Filename,
			PDF:        result.PDF,
			ExportedAt: s.now().UTC(),
		}
		if err := s.archiver.EnqueueArchive(commitCtx, payload); err != nil {
			s.logger.Warn("enqueue archive", slog.String("workspace", id), slog.Any("error", err))
		}
	}
	return result, nil
}

// Draft returns the stored draft without opening the workspace.
func (s *Service) Draft(ctx context.Context, id string) (invoice.Invoice, bool) {
	return s.gateway.LoadDraft(ctx, id)
}

// DiscardDraft drops the pending save and the stored draft.
func (s *Service) DiscardDraft(ctx context.Context, id string) {
	s.autosave.Cancel(id)
	s.gateway.ClearDraft(ctx, id)
}

// History lists exported invoices, most recent first.
func (s *Service) History(ctx context.Context, id string) []invoice.Invoice {
	return s.gateway.LoadHistory(ctx, id)
}

// LoadFromHistory copies a history entry into a new draft.
func (s *Service) LoadFromHistory(ctx context.Context, id, entryID string) (View, error) {
	entry, ok := s.gateway.FindInHistory(ctx, id, entryID)
	if !ok {
		return View{}, ErrHistoryNotFound
	}
	ws := s.registry.Get(ctx, id)
	ws.Editor.LoadFromHistory(entry)
	return s.edited(ws), nil
}

// DeleteFromHistory removes a history entry. Unknown ids are a no-op.
func (s *Service) DeleteFromHistory(ctx context.Context, id, entryID string) []invoice.Invoice {
	s.gateway.DeleteFromHistory(ctx, id, entryID)
	return s.gateway.LoadHistory(ctx, id)
}

// Stats reports what the workspace has stored.
func (s *Service) Stats(ctx context.Context, id string) storage.Stats {
	return s.gateway.Stats(ctx, id)
}

// Sweep evicts workspaces idle for longer than the idle TTL, flushing their
// pending saves first. It returns the number of evicted workspaces.
func (s *Service) Sweep(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)
	evicted := 0
	for _, id := range s.registry.Idle(cutoff) {
		s.autosave.Flush(ctx, id)
		if s.registry.RemoveIfIdle(id, cutoff) {
			evicted++
		}
	}
	s.metrics.SetWorkspaces(s.registry.Len())
	if evicted > 0 {
		s.logger.Info("idle workspaces evicted", slog.Int("count", evicted))
	}
	return evicted
}

// RunSweeper sweeps on every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Shutdown writes every pending draft.
func (s *Service) Shutdown(ctx context.Context) {
	s.autosave.Stop(ctx)
}
