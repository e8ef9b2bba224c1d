package app

import (
	"context"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

// reloadTask runs reload tasks through a ports.Reloader.
type reloadTask struct {
	reloader ports.Reloader
}

func (r reloadTask) Execute(ctx context.Context, _ *domain.Task) error {
	return r.reloader.Reload(ctx)
}

// idleReloader stands in for the live-reload hub outside the dev server.
type idleReloader struct {
	logger ports.Logger
}

func (r idleReloader) Reload(context.Context) error {
	r.logger.Debug("no dev server running, reload skipped")
	return nil
}
