package ports

import (
	"context"

	"go.trai.ch/press/internal/core/domain"
)

// Orchestrator runs named tasks from a sealed registry.
type Orchestrator interface {
	// Sequence runs stages in order; the names within a stage run concurrently.
	Sequence(ctx context.Context, graph *domain.Graph, stages ...[]string) error
}
