package experiment

import (
	"context"
	"sync"
)

// Panel holds the chart for one model. It starts idle, becomes computed
// after a successful Trigger and falls back to idle, with a message, after
// a failed one. A failed trigger never shows the previous data.
type Panel struct {
	mu       sync.Mutex
	registry *Registry
	view     *View
	triggers int
}

func NewPanel(registry *Registry, req Request) *Panel {
	return &Panel{registry: registry, view: Placeholder(req)}
}

// Trigger runs req to completion and replaces the panel's view.
func (p *Panel) Trigger(ctx context.Context, req Request) *View {
	view := p.registry.Execute(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = view
	p.triggers++
	return view
}

// Reset returns the panel to the idle placeholder for req.
func (p *Panel) Reset(req Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = Placeholder(req)
}

func (p *Panel) View() *View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

func (p *Panel) State() State { return p.View().State }

// Triggers counts how many times the panel was computed.
func (p *Panel) Triggers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.triggers
}
