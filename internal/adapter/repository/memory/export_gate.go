package memory

import (
	"context"
	"sync"

	"github.com/iho/cashledger/internal/domain"
)

// ExportGate is a process-local usecase.ExportGate.
type ExportGate struct {
	mu     sync.Mutex
	active map[domain.Day]struct{}
}

// NewExportGate creates a new ExportGate.
func NewExportGate() *ExportGate {
	return &ExportGate{active: make(map[domain.Day]struct{})}
}

// Acquire claims day or fails with domain.ErrExportInProgress.
func (g *ExportGate) Acquire(ctx context.Context, day domain.Day) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[day]; busy {
		return nil, domain.ErrExportInProgress
	}
	g.active[day] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, day)
			g.mu.Unlock()
		})
	}, nil
}
