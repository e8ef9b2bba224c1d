package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/press/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			scheduler.NodeID,
			metrics.NodeID,
			progrock.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[*shell.Executor](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*metrics.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, runner, resolver, hasher, sched, recorder, telemetry, w, log), nil
}
