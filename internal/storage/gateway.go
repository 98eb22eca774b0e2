// Package storage persists invoice drafts and the bounded export history.
package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nanofresh/invoicer/internal/invoice"
)

// MaxHistory is the number of exported invoices kept per workspace.
const MaxHistory = 3

// ErrorRecorder counts storage failures by operation.
type ErrorRecorder interface {
	StorageError(op string)
}

// Stats summarises what a workspace has stored.
type Stats struct {
	HasDraft     bool `json:"hasDraft"`
	HistoryCount int  `json:"historyCount"`
	MaxHistory   int  `json:"maxHistory"`
}

// Gateway is the failure-containing boundary over Repository. None of its
// methods return errors: storage failures are logged and the operation
// degrades to a no-op or an empty result.
type Gateway struct {
	repo    *Repository
	logger  *slog.Logger
	metrics ErrorRecorder
	now     func() time.Time
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithMetrics records failures on the given recorder.
func WithMetrics(m ErrorRecorder) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock overrides the clock used for DownloadedAt.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// NewGateway wraps repo.
func NewGateway(repo *Repository, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SaveDraft overwrites the draft slot with inv, forcing IsDraft.
func (g *Gateway) SaveDraft(ctx context.Context, workspace string, inv invoice.Invoice) {
	draft := inv.AsDraft()
	if draft.ID == "" {
		draft.ID = "INV_" + uuid.NewString()
	}
	if err := g.repo.PutDraft(ctx, workspace, draft); err != nil {
		g.fail("save_draft", workspace, err)
	}
}

// LoadDraft returns the stored draft. The boolean is false when the slot is
// empty, unreadable or corrupt.
func (g *Gateway) LoadDraft(ctx context.Context, workspace string) (invoice.Invoice, bool) {
	inv, err := g.repo.GetDraft(ctx, workspace)
	if err != nil {
		if !errors.Is(err, ErrNoDraft) {
			g.fail("load_draft", workspace, err)
		}
		return invoice.Invoice{}, false
	}
	inv = inv.AsDraft()
	inv.Items = inv.Items.Normalize()
	return inv, true
}

// ClearDraft empties the draft slot.
func (g *Gateway) ClearDraft(ctx context.Context, workspace string) {
	if err := g.repo.DeleteDraft(ctx, workspace); err != nil {
		g.fail("clear_draft", workspace, err)
	}
}

// HasDraft reports whether a draft is stored.
func (g *Gateway) HasDraft(ctx context.Context, workspace string) bool {
	ok, err := g.repo.DraftExists(ctx, workspace)
	if err != nil {
		g.fail("has_draft", workspace, err)
		return false
	}
	return ok
}

// SaveToHistory records inv as exported, keeps the MaxHistory most recent
// entries and clears the draft slot. An export time already set on inv is
// kept; otherwise the entry is stamped now.
func (g *Gateway) SaveToHistory(ctx context.Context, workspace string, inv invoice.Invoice) {
	at := g.now()
	if inv.DownloadedAt != nil {
		at = *inv.DownloadedAt
	}
	entry := inv.Committed(at)
	if entry.ID == "" {
		entry.ID = "INV_" + uuid.NewString()
	}
	history := append([]invoice.Invoice{entry}, g.LoadHistory(ctx, workspace)...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	if err := g.repo.CommitHistory(ctx, workspace, history); err != nil {
		g.fail("save_history", workspace, err)
	}
}

// LoadHistory returns the history list, most recent first. Missing or
// corrupt data yields an empty list.
func (g *Gateway) LoadHistory(ctx context.Context, workspace string) []invoice.Invoice {
	history, err := g.repo.GetHistory(ctx, workspace)
	if err != nil {
		g.fail("load_history", workspace, err)
		return []invoice.Invoice{}
	}
	return history
}

// FindInHistory returns the history entry with the given id.
func (g *Gateway) FindInHistory(ctx context.Context, workspace, id string) (invoice.Invoice, bool) {
	for _, entry := range g.LoadHistory(ctx, workspace) {
		if entry.ID == id {
			return entry, true
		}
	}
	return invoice.Invoice{}, false
}

// DeleteFromHistory removes the entry with the given id. Unknown ids are
// ignored.
func (g *Gateway) DeleteFromHistory(ctx context.Context, workspace, id string) {
	history, err := g.repo.GetHistory(ctx, workspace)
	if err != nil {
		g.fail("delete_history", workspace, err)
		return
	}
	kept := make([]invoice.Invoice, 0, len(history))
	for _, entry := range history {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(history) {
		return
	}
	if err := g.repo.PutHistory(ctx, workspace, kept); err != nil {
		g.fail("delete_history", workspace, err)
	}
}

// Stats reports draft presence and history size.
func (g *Gateway) Stats(ctx context.Context, workspace string) Stats {
	return Stats{
		HasDraft:     g.HasDraft(ctx, workspace),
		HistoryCount: len(g.LoadHistory(ctx, workspace)),
		MaxHistory:   MaxHistory,
	}
}

func (g *Gateway) fail(op, workspace string, err error) {
	g.logger.Error("storage operation failed",
		slog.String("op", op),
		slog.String("workspace", workspace),
		slog.Any("error", err),
	)
	if g.metrics != nil {
		g.metrics.StorageError(op)
	}
}
