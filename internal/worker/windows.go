// internal/worker/windows.go
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// clientWindow is one page tracked by the Registry.
type clientWindow struct {
	id       string
	url      string
	registry *Registry
}

func (w *clientWindow) ID() string  { return w.id }
func (w *clientWindow) URL() string { return w.url }

func (w *clientWindow) Focus(ctx context.Context) error {
	return w.registry.focus(w.id)
}

// Registry is the window boundary for the worker: pages attach themselves
// when they load and detach on unload; the worker enumerates, focuses and
// opens through it. It tracks which windows the worker controls so Claim
// can take over uncontrolled ones.
type Registry struct {
	mu          sync.Mutex
	windows     map[string]*clientWindow
	controlled  map[string]bool
	lastFocused string
}

func NewRegistry() *Registry {
	return &Registry{
		windows:    make(map[string]*clientWindow),
		controlled: make(map[string]bool),
	}
}

// Attach registers an open page. Returns the window id for Detach.
func (r *Registry) Attach(url string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	r.windows[id] = &clientWindow{id: id, url: url, registry: r}
	return id
}

// Detach removes a closed page.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.windows, id)
	delete(r.controlled, id)
}

// Windows lists every open window, controlled or not.
func (r *Registry) Windows(_ context.Context) ([]Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, w)
	}
	return out, nil
}

// Open creates a new window at url. Windows opened by the worker are
// controlled from the start.
func (r *Registry) Open(_ context.Context, url string) (Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	w := &clientWindow{id: id, url: url, registry: r}
	r.windows[id] = w
	r.controlled[id] = true
	r.lastFocused = id
	return w, nil
}

// Claim takes control of every open window immediately.
func (r *Registry) Claim(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.windows {
		r.controlled[id] = true
	}
	return nil
}

// Controlled reports whether the worker controls the given window.
func (r *Registry) Controlled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controlled[id]
}

// LastFocused returns the id of the most recently focused window, or "".
func (r *Registry) LastFocused() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFocused
}

func (r *Registry) focus(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return fmt.Errorf("window %s is gone", id)
	}
	r.lastFocused = id
	return nil
}
