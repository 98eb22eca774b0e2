package workspace

import (
	"context"
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period before a draft is saved.
const DefaultAutosaveDelay = 2 * time.Second

// Autosave triggers reported to the recorder.
const (
	TriggerDebounce = "debounce"
	TriggerFlush    = "flush"
)

// SaveFunc persists the current draft of a workspace. It reads the editor
// state when it runs, not when the save was scheduled.
type SaveFunc func(ctx context.Context, workspace string)

// AutosaveRecorder counts performed saves.
type AutosaveRecorder interface {
	Autosave(trigger string)
}

type pendingSave struct {
	timer *time.Timer
	gen   uint64
}

// Autosaver debounces draft saves per workspace: every Schedule restarts
// the workspace timer, so only the last edit of a burst is written.
type Autosaver struct {
	mu      sync.Mutex
	delay   time.Duration
	save    SaveFunc
	rec     AutosaveRecorder
	pending map[string]pendingSave
	gen     uint64
	stopped bool
}

// NewAutosaver constructs an Autosaver. rec may be nil.
func NewAutosaver(delay time.Duration, save SaveFunc, rec AutosaveRecorder) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		delay:   delay,
		save:    save,
		rec:     rec,
		pending: make(map[string]pendingSave),
	}
}

// Schedule (re)starts the save timer of a workspace.
func (a *Autosaver) Schedule(workspace string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if p, ok := a.pending[workspace]; ok {
		p.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.pending[workspace] = pendingSave{
		timer: time.AfterFunc(a.delay, func() { a.fire(workspace, gen) }),
		gen:   gen,
	}
}

// Cancel drops the pending save of a workspace.
func (a *Autosaver) Cancel(workspace string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[workspace]; ok {
		p.timer.Stop()
		delete(a.pending, workspace)
	}
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending(workspace string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[workspace]
	return ok
}

// Flush runs the pending save of a workspace immediately. It reports
// whether a save was pending.
func (a *Autosaver) Flush(ctx context.Context, workspace string) bool {
	a.mu.Lock()
	p, ok := a.pending[workspace]
	if ok {
		p.timer.Stop()
		delete(a.pending, workspace)
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	a.run(ctx, workspace, TriggerFlush)
	return true
}

// Stop flushes every pending save and rejects further scheduling.
func (a *Autosaver) Stop(ctx context.Context) {
	a.mu.Lock()
	a.stopped = true
	workspaces := make([]string, 0, len(a.pending))
	for ws, p := range a.pending {
		p.timer.Stop()
		workspaces = append(workspaces, ws)
	}
	a.pending = make(map[string]pendingSave)
	a.mu.Unlock()

	for _, ws := range workspaces {
		a.run(ctx, ws, TriggerFlush)
	}
}

func (a *Autosaver) fire(workspace string, gen uint64) {
	a.mu.Lock()
	p, ok := a.pending[workspace]
	if !ok || p.gen != gen {
		a.mu.Unlock()
		return
	}
	delete(a.pending, workspace)
	a.mu.Unlock()
	a.run(context.Background(), workspace, TriggerDebounce)
}

func (a *Autosaver) run(ctx context.Context, workspace, trigger string) {
	a.save(ctx, workspace)
	if a.rec != nil {
		a.rec.Autosave(trigger)
	}
}
