// Package router selects a computation provider for each task category,
// with availability-aware fallback across the provider set.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// Router owns the category-to-provider routing table, the fallback priority
// list, and a process-wide liveness cache. The cache is computed lazily on
// first use and invalidated only by ProbeAvailability.
//
// The routing table and the fallback order are deliberately independent:
// the table expresses per-category domain fit, the order expresses global
// trust ranking when the preferred choice is down.
type Router struct {
	mu        sync.RWMutex
	providers map[core.ProviderID]core.ProviderDefinition
	routes    core.RoutingTable
	order     []core.ProviderID
	executors map[core.ProviderID]core.Executor
	probes    map[core.ProviderID]core.ProbeFunc
	avail     map[core.ProviderID]bool // nil until first availability check
	log       *logging.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithRoutingTable replaces the default category preferences.
func WithRoutingTable(table core.RoutingTable) Option {
	return func(r *Router) {
		r.routes = table.Clone()
	}
}

// WithFallbackOrder replaces the default fallback priority list.
func WithFallbackOrder(order []core.ProviderID) Option {
	return func(r *Router) {
		r.order = append([]core.ProviderID(nil), order...)
	}
}

// WithExecutors wires the execution adapters the router delegates to.
func WithExecutors(executors map[core.ProviderID]core.Executor) Option {
	return func(r *Router) {
		for id, ex := range executors {
			r.executors[id] = ex
		}
	}
}

// WithProbes overrides per-provider liveness probes. Without an explicit
// probe a provider falls back to its executor's Probe method.
func WithProbes(probes map[core.ProviderID]core.ProbeFunc) Option {
	return func(r *Router) {
		for id, probe := range probes {
			r.probes[id] = probe
		}
	}
}

// WithProviders replaces the built-in provider definitions.
func WithProviders(defs map[core.ProviderID]core.ProviderDefinition) Option {
	return func(r *Router) {
		r.providers = make(map[core.ProviderID]core.ProviderDefinition, len(defs))
		for id, def := range defs {
			r.providers[id] = def
		}
	}
}

// New creates a router with the default routing table and fallback order.
func New(log *logging.Logger, opts ...Option) *Router {
	if log == nil {
		log = logging.NewNop()
	}
	r := &Router{
		providers: core.DefaultProviders(),
		routes:    core.DefaultRouting(),
		order:     core.FallbackOrder(),
		executors: make(map[core.ProviderID]core.Executor),
		probes:    make(map[core.ProviderID]core.ProbeFunc),
		log:       log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeCategory coerces free-form category input into a known task
// category. It never fails: unrecognized input maps to the general category
// with a logged warning.
func (r *Router) NormalizeCategory(raw string) core.TaskCategory {
	cat, known := core.NormalizeTaskCategory(raw)
	if !known {
		r.log.Warn("unknown task category, using general", "category", raw)
	}
	return cat
}

// SelectProvider returns the provider to use for a task category. The
// preferred provider wins when available; otherwise the fallback list is
// walked in order, skipping the preferred entry, and the first available
// candidate is returned. Only when the entire list is unavailable does
// selection fail.
func (r *Router) SelectProvider(ctx context.Context, category string) (core.ProviderID, error) {
	task := r.NormalizeCategory(category)

	r.mu.RLock()
	preferred, ok := r.routes[task]
	r.mu.RUnlock()
	if !ok {
		preferred = core.ProviderClaude
	}

	if r.isAvailable(ctx, preferred) {
		r.log.Info("provider selected", "category", string(task), "provider", string(preferred))
		return preferred, nil
	}

	if fallback, ok := r.findFallback(ctx, preferred); ok {
		r.log.Warn("preferred provider unavailable, using fallback",
			"category", string(task),
			"preferred", string(preferred),
			"fallback", string(fallback))
		return fallback, nil
	}

	r.log.Error("no providers available", "category", string(task))
	return "", core.ErrNoProviderAvailable(
		"no providers available: ensure at least one provider CLI (claude, gemini, or chatgpt) is installed and accessible").
		WithDetail("category", string(task))
}

// Invoke selects a provider for the category and delegates the prompt to its
// execution adapter. Delegate failures, including a provider whose
// integration is not wired, are captured in a failed result envelope and
// never returned as errors. Only provider selection can fail.
func (r *Router) Invoke(ctx context.Context, category, prompt, systemContext string) (*core.InvokeResult, error) {
	task := r.NormalizeCategory(category)

	id, err := r.SelectProvider(ctx, category)
	if err != nil {
		return nil, err
	}

	r.log.Info("invoking provider",
		"provider", string(id),
		"category", string(task),
		"prompt_chars", len(prompt))

	r.mu.RLock()
	executor, wired := r.executors[id]
	r.mu.RUnlock()

	if !wired {
		err := fmt.Errorf("provider integration for %s not wired", id)
		r.log.Warn("executor missing", "provider", string(id))
		return &core.InvokeResult{
			Success:  false,
			Provider: id,
			Error:    err.Error(),
		}, nil
	}

	start := time.Now()
	content, err := executor.Invoke(ctx, prompt, systemContext)
	elapsed := time.Since(start)

	if err != nil {
		r.log.Error("provider invocation failed",
			"provider", string(id),
			"duration", elapsed,
			"error", err)
		return &core.InvokeResult{
			Success:  false,
			Provider: id,
			Error:    r.log.Sanitize(err.Error()),
			Duration: elapsed,
		}, nil
	}

	return &core.InvokeResult{
		Success:  true,
		Content:  content,
		Provider: id,
		Duration: elapsed,
	}, nil
}

// ProbeAvailability force-refreshes every provider's liveness, replacing the
// cache. Probes run concurrently; a probe error marks the provider
// unavailable rather than failing the refresh.
func (r *Router) ProbeAvailability(ctx context.Context) map[core.ProviderID]bool {
	r.mu.RLock()
	ids := make([]core.ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var mu sync.Mutex
	fresh := make(map[core.ProviderID]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id // capture
		g.Go(func() error {
			ok := r.probe(gctx, id)
			mu.Lock()
			fresh[id] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	r.mu.Lock()
	r.avail = fresh
	r.mu.Unlock()

	var up, down []string
	for _, id := range ids {
		if fresh[id] {
			up = append(up, string(id))
		} else {
			down = append(down, string(id))
		}
	}
	if len(up) > 0 {
		r.log.Info("available providers", "providers", strings.Join(up, ", "))
	}
	if len(down) > 0 {
		r.log.Warn("unavailable providers", "providers", strings.Join(down, ", "))
	}

	return copyAvailability(fresh)
}

// OverrideRoute replaces the preferred provider for a task category,
// effective immediately. The provider must be one of the known backends.
func (r *Router) OverrideRoute(category, provider string) error {
	task := r.NormalizeCategory(category)

	id := core.ProviderID(strings.ToLower(strings.TrimSpace(provider)))
	if !id.Valid() {
		valid := make([]string, 0, len(core.AllProviders()))
		for _, p := range core.AllProviders() {
			valid = append(valid, string(p))
		}
		return core.ErrValidation(core.CodeInvalidProvider,
			fmt.Sprintf("invalid provider %q, valid options: %s", provider, strings.Join(valid, ", ")))
	}

	r.mu.Lock()
	r.routes[task] = id
	r.mu.Unlock()

	r.log.Info("route updated", "category", string(task), "provider", string(id))
	return nil
}

// Routes returns the current routing table as plain strings.
func (r *Router) Routes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.routes))
	for task, id := range r.routes {
		out[string(task)] = string(id)
	}
	return out
}

// Providers returns the provider definitions sorted by priority.
func (r *Router) Providers() []core.ProviderDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]core.ProviderDefinition, 0, len(r.providers))
	for _, def := range r.providers {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Priority < defs[j].Priority })
	return defs
}

// Executor returns the execution adapter wired for a provider.
func (r *Router) Executor(id core.ProviderID) (core.Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[id]
	return ex, ok
}

// Availability returns the cached liveness view, computing it if needed.
func (r *Router) Availability(ctx context.Context) map[core.ProviderID]bool {
	r.ensureAvailability(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAvailability(r.avail)
}

// isAvailable answers from the liveness cache, computing the full cache on
// first use.
func (r *Router) isAvailable(ctx context.Context, id core.ProviderID) bool {
	r.ensureAvailability(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.avail[id]
}

// ensureAvailability lazily computes liveness for every provider at once.
func (r *Router) ensureAvailability(ctx context.Context) {
	r.mu.RLock()
	cached := r.avail != nil
	r.mu.RUnlock()
	if cached {
		return
	}

	r.mu.RLock()
	ids := make([]core.ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	fresh := make(map[core.ProviderID]bool, len(ids))
	for _, id := range ids {
		fresh[id] = r.probe(ctx, id)
	}

	r.mu.Lock()
	if r.avail == nil {
		r.avail = fresh
	}
	r.mu.Unlock()
}

// probe runs the configured liveness check for one provider. An explicit
// probe wins; otherwise the wired executor's Probe is used; a provider with
// neither is unavailable.
func (r *Router) probe(ctx context.Context, id core.ProviderID) bool {
	r.mu.RLock()
	probe, hasProbe := r.probes[id]
	executor, hasExecutor := r.executors[id]
	r.mu.RUnlock()

	switch {
	case hasProbe:
		return probe(ctx) == nil
	case hasExecutor:
		return executor.Probe(ctx) == nil
	default:
		return false
	}
}

// findFallback walks the fallback order, skipping the excluded provider,
// and returns the first available candidate.
func (r *Router) findFallback(ctx context.Context, excluded core.ProviderID) (core.ProviderID, bool) {
	r.mu.RLock()
	order := append([]core.ProviderID(nil), r.order...)
	r.mu.RUnlock()

	for _, id := range order {
		if id == excluded {
			continue
		}
		if r.isAvailable(ctx, id) {
			return id, true
		}
	}
	return "", false
}

func copyAvailability(in map[core.ProviderID]bool) map[core.ProviderID]bool {
	out := make(map[core.ProviderID]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
