// Package watchloop rebuilds and reloads the site when watched sources change.
package watchloop

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/press/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the watcher adapter
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// Reaction is the task stages a matched rule runs.
type Reaction struct {
	Rule     string
	Category domain.Category
	Stages   [][]string
}

// Loop moves between idle, serving and rebuilding. Rebuilds are serialised:
// changes that arrive while one is in flight are merged into a single
// follow-up rebuild.
type Loop struct {
	paths        domain.PathMap
	graph        *domain.Graph
	rules        []domain.WatchRule
	orchestrator ports.Orchestrator
	watcher      ports.Watcher
	metrics      ports.Metrics
	logger       ports.Logger
	debounce     time.Duration

	state atomic.Int32

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	debouncer *watcher.Debouncer
	running   bool
	pending   map[string]struct{}
	events    sync.WaitGroup
	wg        sync.WaitGroup
}

// Options holds the collaborators of a Loop.
type Options struct {
	Paths        domain.PathMap
	Graph        *domain.Graph
	Rules        []domain.WatchRule
	Orchestrator ports.Orchestrator
	Watcher      ports.Watcher
	Metrics      ports.Metrics
	Logger       ports.Logger
	// Debounce is the quiet period before a batch of changes is processed.
	Debounce time.Duration
}

// New creates an idle Loop.
func New(opts Options) *Loop {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = watcher.DefaultDebounceWindow
	}
	return &Loop{
		paths:        opts.Paths,
		graph:        opts.Graph,
		rules:        opts.Rules,
		orchestrator: opts.Orchestrator,
		watcher:      opts.Watcher,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		debounce:     debounce,
		pending:      make(map[string]struct{}),
	}
}

// State returns the current state.
func (l *Loop) State() domain.ServerState {
	return domain.ServerState(l.state.Load())
}

func (l *Loop) setState(s domain.ServerState) {
	l.state.Store(int32(s))
	l.metrics.SetServerState(s)
}

// Start arms the watches. It returns ErrAlreadyServing if the loop is not idle.
func (l *Loop) Start(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(domain.StateIdle), int32(domain.StateServing)) {
		return domain.ErrAlreadyServing
	}
	l.metrics.SetServerState(domain.StateServing)

	ctx, cancel := context.WithCancel(ctx)
	if err := l.watcher.Start(ctx, l.paths.Root, l.paths.Abs(l.paths.Build)); err != nil {
		cancel()
		l.setState(domain.StateIdle)
		return zerr.Wrap(err, "failed to start watcher")
	}

	debouncer := watcher.NewDebouncer(l.debounce, l.trigger)

	l.mu.Lock()
	l.ctx = ctx
	l.cancel = cancel
	l.debouncer = debouncer
	l.mu.Unlock()

	l.events.Go(func() {
		for event := range l.watcher.Events() {
			rel, ok := l.paths.Rel(event.Path)
			if !ok || l.paths.InBuild(rel) {
				continue
			}
			debouncer.Add(rel)
		}
	})

	l.logger.Info("watching for changes")
	return nil
}

// Stop disarms the watches and rebuilds the changes seen before the watcher
// closed, then waits for the rebuild to return. Cancel the context given to
// Start to abandon an in-flight rebuild instead.
func (l *Loop) Stop() error {
	l.mu.Lock()
	debouncer := l.debouncer
	l.debouncer = nil
	l.mu.Unlock()

	if debouncer == nil {
		return nil
	}

	err := l.watcher.Stop()
	l.events.Wait()
	debouncer.Flush()

	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	l.wg.Wait()
	cancel()

	l.setState(domain.StateIdle)
	if err != nil {
		return zerr.Wrap(err, "failed to stop watcher")
	}
	return nil
}

// Reactions returns the reactions of the rules matched by any of the paths,
// in rule order. Rules with identical reactions yield one entry.
func (l *Loop) Reactions(paths []string) []Reaction {
	var out []Reaction
	seen := make(map[string]bool)

	for i := range l.rules {
		rule := &l.rules[i]
		if !matchesAny(rule, paths) {
			continue
		}

		stages := make([][]string, len(rule.Reaction))
		keys := make([]string, len(rule.Reaction))
		for j, stage := range rule.Reaction {
			names := make([]string, len(stage))
			for k, name := range stage {
				names[k] = name.String()
			}
			stages[j] = names
			keys[j] = strings.Join(names, ",")
		}

		key := strings.Join(keys, ";")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Reaction{Rule: rule.Name, Category: rule.Category, Stages: stages})
	}
	return out
}

func matchesAny(rule *domain.WatchRule, paths []string) bool {
	for _, p := range paths {
		if rule.Matches(p) {
			return true
		}
	}
	return false
}

// trigger receives a debounced batch of changed paths.
func (l *Loop) trigger(paths []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil || l.ctx.Err() != nil {
		return
	}

	if l.running {
		for _, p := range paths {
			l.pending[p] = struct{}{}
		}
		return
	}

	l.running = true
	ctx := l.ctx
	l.wg.Go(func() { l.work(ctx, paths) })
}

// work rebuilds until no changes are pending.
func (l *Loop) work(ctx context.Context, paths []string) {
	for {
		l.rebuild(ctx, paths)

		l.mu.Lock()
		if len(l.pending) == 0 || ctx.Err() != nil {
			l.running = false
			clear(l.pending)
			l.mu.Unlock()
			return
		}
		paths = sortedKeys(l.pending)
		clear(l.pending)
		l.mu.Unlock()
	}
}

func (l *Loop) rebuild(ctx context.Context, paths []string) {
	reactions := l.Reactions(paths)
	if len(reactions) == 0 {
		return
	}

	if !l.state.CompareAndSwap(int32(domain.StateServing), int32(domain.StateRebuilding)) {
		return
	}
	l.metrics.SetServerState(domain.StateRebuilding)
	l.logger.Info("change detected: " + describe(paths))

	for _, reaction := range reactions {
		start := time.Now()
		err := l.orchestrator.Sequence(ctx, l.graph, reaction.Stages...)
		l.metrics.ObserveRebuild(reaction.Category, time.Since(start), err == nil)
		if err == nil {
			l.logger.Debug("rebuilt " + reaction.Rule + " (" + string(reaction.Category) + ")")
			continue
		}
		if ctx.Err() != nil {
			break
		}
		l.logger.Error(zerr.With(zerr.With(zerr.Wrap(err, "rebuild failed"), "rule", reaction.Rule), "category", string(reaction.Category)))
	}

	if l.state.CompareAndSwap(int32(domain.StateRebuilding), int32(domain.StateServing)) {
		l.metrics.SetServerState(domain.StateServing)
	}
}

func describe(paths []string) string {
	switch len(paths) {
	case 0:
		return ""
	case 1:
		return paths[0]
	default:
		return paths[0] + " (+" + strconv.Itoa(len(paths)-1) + " more)"
	}
}
