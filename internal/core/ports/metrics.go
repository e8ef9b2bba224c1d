package ports

import (
	"time"

	"go.trai.ch/press/internal/core/domain"
)

// Metrics records pipeline and dev-server measurements.
type Metrics interface {
	ObserveTask(task string, d time.Duration, status domain.TaskStatus)
	ObserveRebuild(category domain.Category, d time.Duration, ok bool)
	SetServerState(state domain.ServerState)
	SetReloadClients(n int)
}
