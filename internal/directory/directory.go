// Package directory owns agent identity: registration, name and alias
// resolution, and roster validation.
package directory

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// Directory is the registry of known agents. Names are the stable keys and
// aliases are unique short handles; both resolve case-insensitively and the
// name/alias mapping is kept strictly 1:1.
//
// Read paths are safe for concurrent use. Administrative mutation
// (Register, Remove) takes the write lock and is expected to be rare.
type Directory struct {
	mu      sync.RWMutex
	agents  map[string]*core.AgentDefinition // lowercase name -> definition
	aliases map[string]string                // lowercase alias -> lowercase name
	log     *logging.Logger

	// promptExists is swappable in tests so validation does not depend on
	// the real filesystem.
	promptExists func(path string) bool
}

// Option configures a Directory.
type Option func(*Directory)

// WithPromptChecker overrides how ValidateAll checks prompt file presence.
func WithPromptChecker(fn func(path string) bool) Option {
	return func(d *Directory) {
		d.promptExists = fn
	}
}

// New creates an empty directory.
func New(log *logging.Logger, opts ...Option) *Directory {
	if log == nil {
		log = logging.NewNop()
	}
	d := &Directory{
		agents:  make(map[string]*core.AgentDefinition),
		aliases: make(map[string]string),
		log:     log,
		promptExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithDefaults creates a directory pre-populated with the default roster.
func NewWithDefaults(log *logging.Logger, opts ...Option) (*Directory, error) {
	d := New(log, opts...)
	if err := d.Bootstrap(); err != nil {
		return nil, err
	}
	return d, nil
}

// Bootstrap loads the default roster into the directory.
func (d *Directory) Bootstrap() error {
	for _, def := range DefaultRoster() {
		if err := d.Register(def, false); err != nil {
			return err
		}
	}
	d.log.Debug("loaded default roster", "agents", d.Len())
	return nil
}

// Register adds an agent definition under its name. With overwrite false an
// existing name fails with an already-exists error, leaving the prior entry
// untouched. With overwrite true the old entry's alias mapping is released
// before the new one is installed. An alias held by a different agent is
// always a conflict.
func (d *Directory) Register(def core.AgentDefinition, overwrite bool) error {
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if name == "" {
		return core.ErrValidation(core.CodeEmptyName, "agent name cannot be empty")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.agents[name]; exists && !overwrite {
		return core.ErrAlreadyExists("agent", name)
	}

	aliasKey := strings.ToLower(def.Alias)
	if holder, taken := d.aliases[aliasKey]; taken && holder != name {
		return core.ErrAlreadyExists("alias", def.Alias).WithDetail("held_by", holder)
	}

	// Release the previous alias before installing the new mapping.
	if old, exists := d.agents[name]; exists {
		delete(d.aliases, strings.ToLower(old.Alias))
	}

	stored := def
	stored.Name = name
	d.agents[name] = &stored
	d.aliases[aliasKey] = name

	d.log.Info("registered agent", "agent", name, "alias", def.Alias, "role", string(def.Role))
	return nil
}

// Resolve looks up an agent by name or alias, case-insensitively. Direct
// name lookup wins over alias lookup.
func (d *Directory) Resolve(nameOrAlias string) (*core.AgentDefinition, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrAlias))

	d.mu.RLock()
	defer d.mu.RUnlock()

	if agent, ok := d.agents[key]; ok {
		return agent, nil
	}
	if name, ok := d.aliases[key]; ok {
		return d.agents[name], nil
	}

	err := core.ErrNotFound("agent", nameOrAlias)
	err.Message = fmt.Sprintf("agent not found: %s (known agents: %s)",
		nameOrAlias, strings.Join(d.namesLocked(), ", "))
	return nil, err.WithDetail("available", d.namesLocked())
}

// ResolveAlias looks up an agent by alias only.
func (d *Directory) ResolveAlias(alias string) (*core.AgentDefinition, error) {
	key := strings.ToLower(strings.TrimSpace(alias))

	d.mu.RLock()
	defer d.mu.RUnlock()

	name, ok := d.aliases[key]
	if !ok {
		return nil, core.ErrNotFound("alias", alias).
			WithDetail("available", d.aliasesLocked())
	}
	return d.agents[name], nil
}

// Remove deletes an agent and its alias mapping.
func (d *Directory) Remove(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))

	d.mu.Lock()
	defer d.mu.Unlock()

	agent, ok := d.agents[key]
	if !ok {
		return core.ErrNotFound("agent", name)
	}

	delete(d.agents, key)
	delete(d.aliases, strings.ToLower(agent.Alias))

	d.log.Info("removed agent", "agent", key)
	return nil
}

// List returns all agent definitions sorted by name.
func (d *Directory) List() []*core.AgentDefinition {
	d.mu.RLock()
	defer d.mu.RUnlock()

	agents := make([]*core.AgentDefinition, 0, len(d.agents))
	for _, agent := range d.agents {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].Name < agents[j].Name
	})
	return agents
}

// Names returns all registered agent names sorted.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.namesLocked()
}

// Aliases returns all registered aliases, sorted by owning agent name.
func (d *Directory) Aliases() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.aliasesLocked()
}

// ByRole returns all agents with the given role category, sorted by name.
func (d *Directory) ByRole(role core.RoleCategory) []*core.AgentDefinition {
	var matching []*core.AgentDefinition
	for _, agent := range d.List() {
		if agent.Role == role {
			matching = append(matching, agent)
		}
	}
	return matching
}

// Contains reports whether an agent exists by name or alias.
func (d *Directory) Contains(nameOrAlias string) bool {
	key := strings.ToLower(strings.TrimSpace(nameOrAlias))

	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.agents[key]; ok {
		return true
	}
	_, ok := d.aliases[key]
	return ok
}

// Len returns the number of registered agents.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.agents)
}

// ValidateAll checks every registered agent and returns a per-agent verdict.
// Inactive agents and agents with an unregistered dependency are invalid.
// A missing prompt file is logged as an issue but does not fail validation,
// since prompts may be created later.
//
// Dependency lists are checked for existence only. Nothing here detects
// cyclic dependency chains; a cycle validates cleanly.
func (d *Directory) ValidateAll() map[string]bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make(map[string]bool, len(d.agents))

	for name, agent := range d.agents {
		valid := true
		var issues []string

		if !agent.Active {
			issues = append(issues, "agent is inactive")
			valid = false
		}

		if !d.promptExists(agent.PromptFile) {
			issues = append(issues, fmt.Sprintf("prompt file not found: %s", agent.PromptFile))
		}

		for _, dep := range agent.Dependencies {
			if _, ok := d.agents[strings.ToLower(dep)]; !ok {
				issues = append(issues, fmt.Sprintf("missing dependency: %s", dep))
				valid = false
			}
		}

		results[name] = valid

		if len(issues) > 0 {
			d.log.Warn("agent validation issues", "agent", name, "issues", strings.Join(issues, ", "))
		}
	}

	return results
}

func (d *Directory) namesLocked() []string {
	names := make([]string, 0, len(d.agents))
	for name := range d.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Directory) aliasesLocked() []string {
	names := d.namesLocked()
	aliases := make([]string, 0, len(names))
	for _, name := range names {
		aliases = append(aliases, d.agents[name].Alias)
	}
	return aliases
}
