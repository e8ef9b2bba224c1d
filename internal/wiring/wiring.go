// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/press/internal/adapters/config"
	_ "go.trai.ch/press/internal/adapters/fs"
	_ "go.trai.ch/press/internal/adapters/logger"
	_ "go.trai.ch/press/internal/adapters/metrics"
	_ "go.trai.ch/press/internal/adapters/shell"
	_ "go.trai.ch/press/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/press/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/press/internal/app"
	_ "go.trai.ch/press/internal/engine/scheduler"
)
