// Package engine composes the agent directory, the provider router, and
// the storage port into the orchestrator: task execution, workflow
// sequencing with per-phase failure tolerance, and agent messaging.
package engine

import (
	"context"
	"sync"

	"github.com/hugo-lorenzo-mato/gripro/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/gripro/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/directory"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
	"github.com/hugo-lorenzo-mato/gripro/internal/router"
)

// Engine is the orchestration core. It owns explicit component instances
// wired by a one-time Setup; there is no ambient singleton. Every
// operation other than Setup fails NotInitialized until Setup completes.
//
// One workflow run is strictly sequential. Runs for independent projects
// may proceed concurrently; the active-run map is the only shared mutable
// state and is guarded separately from the lifecycle lock.
type Engine struct {
	cfg *config.Config
	log *logging.Logger

	mu    sync.RWMutex
	ready bool
	dir   *directory.Directory
	rt    *router.Router
	store core.Store

	runMu sync.Mutex
	runs  map[string]*core.WorkflowRun

	// construction overrides, injected by options
	executors map[core.ProviderID]core.Executor
	probes    map[core.ProviderID]core.ProbeFunc
	storeOvr  core.Store
	storeSet  bool
}

// Option configures an Engine before Setup.
type Option func(*Engine)

// WithStore injects the storage port directly, bypassing the configured
// backend. Passing nil runs the engine without persistence.
func WithStore(s core.Store) Option {
	return func(e *Engine) {
		e.storeOvr = s
		e.storeSet = true
	}
}

// WithExecutors injects the execution adapters, bypassing adapter
// construction from provider configuration.
func WithExecutors(executors map[core.ProviderID]core.Executor) Option {
	return func(e *Engine) {
		e.executors = executors
	}
}

// WithProbes injects per-provider liveness probes for the router.
func WithProbes(probes map[core.ProviderID]core.ProbeFunc) Option {
	return func(e *Engine) {
		e.probes = probes
	}
}

// New creates an engine bound to a configuration. Call Setup before use.
func New(cfg *config.Config, log *logging.Logger, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if log == nil {
		log = logging.NewNop()
	}
	e := &Engine{
		cfg:  cfg,
		log:  log,
		runs: make(map[string]*core.WorkflowRun),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup wires all components: execution adapters for the enabled
// providers, the default agent roster (plus the configured roster file,
// if any), the provider router, and the storage backend. A second call
// warns and no-ops. Availability probing is logged, never fatal; a
// missing storage configuration downgrades to running without
// persistence.
func (e *Engine) Setup(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		e.log.Warn("engine already initialized")
		return nil
	}
	e.log.Info("initializing engine")

	executors := e.executors
	if executors == nil {
		built, err := cli.FromConfig(e.cfg, e.log)
		if err != nil {
			return core.ErrOrchestrator(core.CodeSetupFailed, "initialization failed").WithCause(err)
		}
		executors = built
	}
	if len(executors) == 0 {
		return core.ErrOrchestrator(core.CodeNoProviders,
			"no providers enabled: enable at least one provider in the configuration")
	}
	e.log.Info("providers enabled", "count", len(executors))

	dir, err := directory.NewWithDefaults(e.log)
	if err != nil {
		return core.ErrOrchestrator(core.CodeSetupFailed, "initialization failed").WithCause(err)
	}
	if e.cfg.Roster.Path != "" {
		n, err := directory.LoadInto(dir, e.cfg.Roster.Path)
		if err != nil {
			return core.ErrOrchestrator(core.CodeSetupFailed, "initialization failed").WithCause(err)
		}
		e.log.Info("custom roster loaded", "path", e.cfg.Roster.Path, "agents", n)
	}
	e.dir = dir
	e.log.Info("agent directory loaded", "agents", dir.Len())

	rtOpts := []router.Option{router.WithExecutors(executors)}
	if len(e.probes) > 0 {
		rtOpts = append(rtOpts, router.WithProbes(e.probes))
	}
	e.rt = router.New(e.log, rtOpts...)
	e.rt.ProbeAvailability(ctx)

	if e.storeSet {
		e.store = e.storeOvr
	} else {
		st, err := state.NewStore(e.cfg, e.log)
		if err != nil {
			return core.ErrOrchestrator(core.CodeSetupFailed, "initialization failed").WithCause(err)
		}
		e.store = st
	}
	if e.store == nil {
		e.log.Warn("storage not configured, running without persistence")
	}

	e.ready = true
	e.log.Info("engine initialized")
	return nil
}

// Teardown closes the storage port and resets the initialized flag.
func (e *Engine) Teardown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.log.Info("shutting down engine")

	var err error
	if e.store != nil {
		err = e.store.Close()
		e.store = nil
	}
	e.ready = false

	e.log.Info("engine shut down")
	return err
}

// Ready reports whether Setup has completed.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Directory returns the agent directory, nil before Setup.
func (e *Engine) Directory() *directory.Directory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dir
}

// Router returns the provider router, nil before Setup.
func (e *Engine) Router() *router.Router {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rt
}

// Store returns the storage port, nil before Setup or without persistence.
func (e *Engine) Store() core.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store
}

// ActiveRun returns a snapshot of the project's in-flight workflow run.
func (e *Engine) ActiveRun(projectID string) (core.WorkflowRun, bool) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	run, ok := e.runs[projectID]
	if !ok {
		return core.WorkflowRun{}, false
	}
	return run.Snapshot(), true
}

// components snapshots the wired components under the read lock so an
// operation keeps a consistent view even across a concurrent Teardown.
func (e *Engine) components() (*directory.Directory, *router.Router, core.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return nil, nil, nil, core.ErrNotInitialized("engine")
	}
	return e.dir, e.rt, e.store, nil
}
