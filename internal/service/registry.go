package service

import (
	"fmt"
	"sync"
)

// Registry garantiza una sola instancia activa de widget por contexto de navegacion.
type Registry struct {
	mu      sync.Mutex
	widgets map[string]*Widget
}

func NewRegistry() *Registry {
	return &Registry{widgets: make(map[string]*Widget)}
}

func (r *Registry) Register(contextID string, w *Widget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.widgets[contextID]; ok {
		return fmt.Errorf("%w: %s", ErrWidgetAlreadyActive, contextID)
	}
	r.widgets[contextID] = w
	return nil
}

func (r *Registry) Get(contextID string) (*Widget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.widgets[contextID]
	return w, ok
}

// Release libera el contexto solo si sigue registrado por la misma instancia.
func (r *Registry) Release(contextID string, w *Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.widgets[contextID]; ok && current == w {
		delete(r.widgets, contextID)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}
