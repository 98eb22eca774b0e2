package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/preview"
)

// Workspace is the in-memory state of one browser session: its editor and
// the render target of its preview.
type Workspace struct {
	ID     string
	Editor *invoice.Editor
	Target *preview.Target

	lastSeen time.Time
}

// Factory builds the workspace for an id seen for the first time.
type Factory func(ctx context.Context, id string) *Workspace

// Registry maps workspace ids to live workspaces.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	factory Factory
	now     func() time.Time
}

// NewRegistry constructs a Registry.
func NewRegistry(factory Factory, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{items: make(map[string]*Workspace), factory: factory, now: now}
}

// Get returns the workspace for id, creating it on first access.
func (r *Registry) Get(ctx context.Context, id string) *Workspace {
	r.mu.Lock()
	if ws, ok := r.items[id]; ok {
		ws.lastSeen = r.now()
		r.mu.Unlock()
		return ws
	}
	r.mu.Unlock()

	created := r.factory(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.items[id]; ok {
		ws.lastSeen = r.now()
		return ws
	}
	created.lastSeen = r.now()
	r.items[id] = created
	return created
}

// Lookup returns a live workspace without creating one.
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[id]
	return ws, ok
}

// Idle lists workspaces not touched since cutoff.
func (r *Registry) Idle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, ws := range r.items {
		if ws.lastSeen.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveIfIdle evicts a workspace unless it was touched since cutoff or an
// export is running.
func (r *Registry) RemoveIfIdle(id string, cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[id]
	if !ok || !ws.lastSeen.Before(cutoff) {
		return false
	}
	if _, state := ws.Editor.Snapshot(); state == invoice.StateExporting {
		return false
	}
	delete(r.items, id)
	return true
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
