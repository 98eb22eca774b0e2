package preview

import "sync"

// Target is the render target of one workspace: the element that is shown
// as the live preview and captured during export.
type Target struct {
	mu       sync.Mutex
	renderer *Renderer
	layout   Layout
}

// NewTarget returns a target using the screen layout.
func NewTarget(renderer *Renderer) *Target {
	return &Target{renderer: renderer, layout: ScreenLayout()}
}

// Layout returns the layout currently applied.
func (t *Target) Layout() Layout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layout
}

// Override applies a temporary layout. The returned function restores the
// previous layout and is safe to call more than once.
func (t *Target) Override(layout Layout) (restore func()) {
	t.mu.Lock()
	previous := t.layout
	t.layout = layout
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.layout = previous
			t.mu.Unlock()
		})
	}
}

// HTML renders doc with the layout currently applied.
func (t *Target) HTML(doc Document) (string, error) {
	return t.renderer.Render(doc, t.Layout())
}
