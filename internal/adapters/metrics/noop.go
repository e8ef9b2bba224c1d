package metrics

import (
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Metrics = Noop{}

// Noop discards all measurements.
type Noop struct{}

func (Noop) ObserveTask(string, time.Duration, domain.TaskStatus) {}
func (Noop) ObserveRebuild(domain.Category, time.Duration, bool) {}
func (Noop) SetServerState(domain.ServerState) {}
func (Noop) SetReloadClients(int) {}
