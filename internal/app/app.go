// Package app implements the application layer for press.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.trai.ch/press/internal/adapters/assets"
	"go.trai.ch/press/internal/adapters/config"
	"go.trai.ch/press/internal/adapters/detector"
	"go.trai.ch/press/internal/adapters/httpserver"
	"go.trai.ch/press/internal/adapters/livereload"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/adapters/site"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/scheduler"
	"go.trai.ch/press/internal/engine/watchloop"
	"go.trai.ch/zerr"
)

// Runner is the shell adapter: it runs command tasks and external processes.
type Runner interface {
	ports.Executor
	ports.CommandRunner
}

type logSettings interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// Settings are the global command line options.
type Settings struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	runner       Runner
	resolver     ports.InputResolver
	hasher       ports.Hasher
	scheduler    *scheduler.Scheduler
	metrics      *metrics.Recorder
	telemetry    ports.Telemetry
	watcher      ports.Watcher
	logger       ports.Logger

	configPath string
	logMode    detector.OutputMode
	forceJSON  bool
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner Runner,
	resolver ports.InputResolver,
	hasher ports.Hasher,
	sched *scheduler.Scheduler,
	recorder *metrics.Recorder,
	telemetry ports.Telemetry,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		runner:       runner,
		resolver:     resolver,
		hasher:       hasher,
		scheduler:    sched,
		metrics:      recorder,
		telemetry:    telemetry,
		watcher:      watcher,
		logger:       log,
		configPath:   config.DefaultFilename,
	}
}

// Configure applies the global options.
func (a *App) Configure(s Settings) {
	if s.ConfigPath != "" {
		a.configPath = s.ConfigPath
	}
	a.forceJSON = s.JSON
	a.logMode = detector.DetectEnvironment()
	if s.JSON {
		a.logMode = detector.ModeJSON
	}
	if l, ok := a.logger.(logSettings); ok {
		l.SetVerbose(s.Verbose)
		l.SetJSON(a.logMode == detector.ModeJSON)
	}
}

// applyLogFormat switches the logger to the configured format unless --json was given.
func (a *App) applyLogFormat(format domain.LogFormat) {
	if a.forceJSON {
		return
	}
	if l, ok := a.logger.(logSettings); ok {
		l.SetJSON(detector.ResolveMode(a.logMode, string(format)) == detector.ModeJSON)
	}
}

// session is a loaded project with its sealed registry.
type session struct {
	project *domain.Project
	graph   *domain.Graph
}

// load reads the configuration, builds the registry and binds the executors
// of the project to the scheduler.
func (a *App) load() (*session, error) {
	project, err := a.configLoader.Load(a.configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	a.applyLogFormat(project.Log.Format)

	graph, err := NewRegistry(project)
	if err != nil {
		return nil, zerr.Wrap(err, "invalid task registry")
	}
	a.logger.Debug("registered " + strconv.Itoa(graph.TaskCount()) + " tasks")

	scripts, err := assets.NewScripts(project, a.resolver, a.logger)
	if err != nil {
		return nil, err
	}

	a.scheduler.Handle(domain.ActionSite, site.NewBuilder(project, a.runner, a.logger))
	a.scheduler.Handle(domain.ActionStylesheet, assets.NewStylesheet(project, a.logger))
	a.scheduler.Handle(domain.ActionScripts, scripts)
	a.scheduler.Handle(domain.ActionImages, assets.NewImages(project, a.resolver, a.logger))
	a.scheduler.Handle(domain.ActionCommand, a.runner)
	a.scheduler.Handle(domain.ActionReload, reloadTask{reloader: idleReloader{logger: a.logger}})

	return &session{project: project, graph: graph}, nil
}

// Run executes the named tasks concurrently.
func (a *App) Run(ctx context.Context, targetNames []string) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	s, err := a.load()
	if err != nil {
		return err
	}

	start := time.Now()
	if err := a.scheduler.Run(ctx, s.graph, targetNames); err != nil {
		return a.failed(err)
	}

	a.logger.Info("finished " + strings.Join(targetNames, ", ") + " in " + time.Since(start).Round(time.Millisecond).String())
	return nil
}

// failed reports a failed orchestrated run and marks it as reported.
func (a *App) failed(err error) error {
	a.logger.Error(err)
	return errors.Join(domain.ErrBuildExecutionFailed, err)
}

// ServeOptions overrides the serve section of the configuration.
type ServeOptions struct {
	Host         string
	Port         int
	NoLiveReload bool
}

// Serve builds the site, serves the output and rebuilds on changes until ctx is cancelled.
//
//nolint:cyclop // orchestration function
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	s, err := a.load()
	if err != nil {
		return err
	}

	serve := s.project.Serve
	if opts.Host != "" {
		serve.Host = opts.Host
	}
	if opts.Port != 0 {
		serve.Port = opts.Port
	}
	if opts.NoLiveReload {
		serve.LiveReload = false
	}

	rules := WatchRules(s.project)
	if err := domain.ValidateWatchRules(s.graph, rules); err != nil {
		return zerr.Wrap(err, "invalid watch rules")
	}

	paths := s.project.Paths
	buildDir := paths.Abs(paths.Build)

	var hub *livereload.Hub
	if serve.LiveReload {
		hub = livereload.NewHub(buildDir, a.hasher, a.metrics, a.logger)
		a.scheduler.Handle(domain.ActionReload, reloadTask{reloader: hub})
	}

	server := httpserver.New(httpserver.Options{
		Addr:    net.JoinHostPort(serve.Host, strconv.Itoa(serve.Port)),
		Root:    buildDir,
		Hub:     hub,
		Metrics: a.metrics.Handler(),
	}, a.logger)

	addr, err := server.Start(ctx)
	if err != nil {
		return err
	}

	if err := a.scheduler.Sequence(ctx, s.graph, []string{TaskBuild}, []string{TaskBuildAssets}); err != nil && ctx.Err() == nil {
		a.logger.Error(zerr.Wrap(err, "initial build failed"))
	}

	loop := watchloop.New(watchloop.Options{
		Paths:        paths,
		Graph:        s.graph,
		Rules:        rules,
		Orchestrator: a.scheduler,
		Watcher:      a.watcher,
		Metrics:      a.metrics,
		Logger:       a.logger,
		Debounce:     serve.Debounce,
	})
	if err := loop.Start(ctx); err != nil {
		return errors.Join(err, server.Stop(ctx))
	}

	a.logger.Info("ready at http://" + addr)
	<-ctx.Done()
	a.logger.Info("shutting down")

	return errors.Join(loop.Stop(), server.Stop(ctx))
}

// Tasks writes the registered tasks of the project to w, prerequisites first.
func (a *App) Tasks(w io.Writer) error {
	s, err := a.load()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TASK\tRUNS\tDESCRIPTION")
	for task := range s.graph.Walk() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", task.Name, describeRuns(&task), task.Description)
	}
	return tw.Flush()
}

func describeRuns(task *domain.Task) string {
	if len(task.Stages) == 0 {
		if task.Action == domain.ActionCommand {
			return strings.Join(task.Command, " ")
		}
		return string(task.Action)
	}

	stages := make([]string, len(task.Stages))
	for i, stage := range task.Stages {
		names := make([]string, len(stage))
		for j, n := range stage {
			names[j] = n.String()
		}
		stages[i] = "[" + strings.Join(names, " ") + "]"
	}

	runs := strings.Join(stages, " → ")
	if task.Action != domain.ActionNone {
		runs += " → " + string(task.Action)
	}
	return runs
}

// Close flushes telemetry and releases the file watcher.
func (a *App) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Close())
	}
	return errors.Join(errs...)
}
