// Package scheduler runs tasks from a sealed registry in dependency order.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	telemetry ports.Telemetry
	metrics   ports.Metrics
	logger    ports.Logger

	mu         sync.RWMutex
	executors  map[domain.Action]ports.Executor
	taskStatus map[domain.InternedString]domain.TaskStatus
}

// New creates a Scheduler. Executors are attached per action with Handle.
func New(telemetry ports.Telemetry, metrics ports.Metrics, logger ports.Logger) *Scheduler {
	return &Scheduler{
		telemetry:  telemetry,
		metrics:    metrics,
		logger:     logger,
		executors:  make(map[domain.Action]ports.Executor),
		taskStatus: make(map[domain.InternedString]domain.TaskStatus),
	}
}

// Handle registers the executor that runs the bodies of tasks with the given action.
func (s *Scheduler) Handle(action domain.Action, exec ports.Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[action] = exec
}

// Status returns the last known status of a task.
func (s *Scheduler) Status(name string) (domain.TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.taskStatus[domain.NewInternedString(name)]
	return status, ok
}

func (s *Scheduler) updateStatus(name domain.InternedString, status domain.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

func (s *Scheduler) executor(action domain.Action) (ports.Executor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executors[action]
	return exec, ok
}

// Run executes the targets concurrently as a single stage.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targets []string) error {
	return s.Sequence(ctx, graph, targets)
}

// Sequence executes stages in order; the names within a stage run concurrently.
// A failed stage stops the sequence after its running tasks have finished.
// Within one call every task body runs at most once.
func (s *Scheduler) Sequence(ctx context.Context, graph *domain.Graph, stages ...[]string) error {
	if !graph.Sealed() {
		return domain.ErrRegistryNotSealed
	}

	resolved, err := s.resolve(graph, stages)
	if err != nil {
		return err
	}

	r := &run{
		s:       s,
		graph:   graph,
		futures: make(map[domain.InternedString]*future),
	}

	for _, stage := range resolved {
		if err := r.stage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

// resolve checks that every target exists and that every task reachable from
// the targets has an executor, before anything runs.
func (s *Scheduler) resolve(graph *domain.Graph, stages [][]string) ([][]domain.InternedString, error) {
	resolved := make([][]domain.InternedString, 0, len(stages))
	var pending []domain.InternedString

	for _, stage := range stages {
		names := make([]domain.InternedString, 0, len(stage))
		for _, name := range stage {
			in := domain.NewInternedString(name)
			if _, ok := graph.GetTask(in); !ok {
				return nil, zerr.With(domain.ErrTaskNotFound, "task", name)
			}
			names = append(names, in)
		}
		if len(names) > 0 {
			resolved = append(resolved, names)
			pending = append(pending, names...)
		}
	}

	if len(resolved) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	seen := make(map[domain.InternedString]bool)
	for len(pending) > 0 {
		name := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if seen[name] {
			continue
		}
		seen[name] = true

		task, _ := graph.GetTask(name)
		if task.Action != domain.ActionNone {
			if _, ok := s.executor(task.Action); !ok {
				return nil, zerr.With(zerr.With(domain.ErrNoExecutor, "task", name.String()), "action", string(task.Action))
			}
		}
		pending = append(pending, task.Dependencies()...)
	}

	for name := range seen {
		s.updateStatus(name, domain.TaskStatusPending)
	}

	return resolved, nil
}

// future is the shared result of a task within one run.
type future struct {
	done chan struct{}
	err  error
}

type run struct {
	s     *Scheduler
	graph *domain.Graph

	mu      sync.Mutex
	futures map[domain.InternedString]*future
}

// stage runs names concurrently and waits for all of them.
func (r *run) stage(ctx context.Context, names []domain.InternedString) error {
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			errs[i] = r.await(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(dedupe(errs)...)
}

// await runs the task if no one has started it yet, otherwise waits for the
// first execution's result.
func (r *run) await(ctx context.Context, name domain.InternedString) error {
	r.mu.Lock()
	f, started := r.futures[name]
	if !started {
		f = &future{done: make(chan struct{})}
		r.futures[name] = f
	}
	r.mu.Unlock()

	if !started {
		f.err = r.execute(ctx, name)
		close(f.done)
		return f.err
	}

	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *run) execute(ctx context.Context, name domain.InternedString) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	task, _ := r.graph.GetTask(name)

	for _, stage := range task.Stages {
		if err := r.stage(ctx, stage); err != nil {
			r.s.updateStatus(name, domain.TaskStatusSkipped)
			r.s.metrics.ObserveTask(name.String(), 0, domain.TaskStatusSkipped)
			return err
		}
	}

	if task.Action == domain.ActionNone {
		r.s.updateStatus(name, domain.TaskStatusCompleted)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	exec, _ := r.s.executor(task.Action)

	r.s.updateStatus(name, domain.TaskStatusRunning)
	r.s.logger.Debug("starting " + name.String())

	vctx, vertex := r.s.telemetry.Record(ports.ContextWithTask(ctx, name.String()), name.String())
	start := time.Now()
	err := exec.Execute(vctx, &task)
	elapsed := time.Since(start)
	vertex.Complete(err)

	if err != nil {
		r.s.updateStatus(name, domain.TaskStatusFailed)
		r.s.metrics.ObserveTask(name.String(), elapsed, domain.TaskStatusFailed)
		return zerr.With(taskError{err: err}, "task", name.String())
	}

	r.s.updateStatus(name, domain.TaskStatusCompleted)
	r.s.metrics.ObserveTask(name.String(), elapsed, domain.TaskStatusCompleted)
	r.s.logger.Debug("finished " + name.String() + " in " + elapsed.Round(time.Millisecond).String())
	return nil
}

// taskError marks a failed task body. It matches domain.ErrTaskExecutionFailed.
type taskError struct {
	err error
}

func (e taskError) Error() string {
	return domain.ErrTaskExecutionFailed.Error() + ": " + e.err.Error()
}

func (e taskError) Unwrap() error { return e.err }

func (e taskError) Is(target error) bool {
	return target == domain.ErrTaskExecutionFailed
}

// dedupe drops nil errors and repeats of the same failure reached through
// several dependents.
func dedupe(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err == nil || slices.ContainsFunc(out, func(seen error) bool { return errors.Is(seen, err) }) {
			continue
		}
		out = append(out, err)
	}
	return out
}
