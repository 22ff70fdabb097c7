package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// FakeExecutor is a scripted core.Executor for testing. It records every
// call and returns configurable responses.
type FakeExecutor struct {
	mu sync.Mutex

	id         core.ProviderID
	response   string
	invokeErr  error
	probeErr   error
	invokeFunc func(ctx context.Context, prompt, systemContext string) (string, error)

	calls          []string
	prompts        []string
	systemContexts []string
}

// NewFakeExecutor creates a fake executor for the given provider.
func NewFakeExecutor(id core.ProviderID) *FakeExecutor {
	return &FakeExecutor{
		id:       id,
		response: fmt.Sprintf("fake %s output", id),
	}
}

// WithResponse sets the output Invoke returns.
func (f *FakeExecutor) WithResponse(response string) *FakeExecutor {
	f.response = response
	return f
}

// WithError makes Invoke fail with err.
func (f *FakeExecutor) WithError(err error) *FakeExecutor {
	f.invokeErr = err
	return f
}

// WithProbeError makes Probe fail with err.
func (f *FakeExecutor) WithProbeError(err error) *FakeExecutor {
	f.probeErr = err
	return f
}

// WithInvokeFunc sets a custom invoke implementation.
func (f *FakeExecutor) WithInvokeFunc(fn func(ctx context.Context, prompt, systemContext string) (string, error)) *FakeExecutor {
	f.invokeFunc = fn
	return f
}

// ID returns the provider this executor serves.
func (f *FakeExecutor) ID() core.ProviderID {
	return f.id
}

// Invoke returns the scripted response or error.
func (f *FakeExecutor) Invoke(ctx context.Context, prompt, systemContext string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "Invoke")
	f.prompts = append(f.prompts, prompt)
	f.systemContexts = append(f.systemContexts, systemContext)
	fn := f.invokeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, systemContext)
	}
	if f.invokeErr != nil {
		return "", f.invokeErr
	}
	return f.response, nil
}

// Probe returns the scripted probe error, if any.
func (f *FakeExecutor) Probe(ctx context.Context) error {
	f.mu.Lock()
	f.calls = append(f.calls, "Probe")
	f.mu.Unlock()
	return f.probeErr
}

// Calls returns the list of method calls made.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times a method was called.
func (f *FakeExecutor) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.calls {
		if c == method {
			count++
		}
	}
	return count
}

// Prompts returns every prompt passed to Invoke.
func (f *FakeExecutor) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if none.
func (f *FakeExecutor) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// LastSystemContext returns the most recent system context, or "" if none.
func (f *FakeExecutor) LastSystemContext() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.systemContexts) == 0 {
		return ""
	}
	return f.systemContexts[len(f.systemContexts)-1]
}

// Reset clears recorded calls and prompts.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.prompts = nil
	f.systemContexts = nil
}

// MemoryStore is an in-memory core.Store for testing. It mirrors the
// validation and not-found semantics of the real backends.
type MemoryStore struct {
	mu sync.Mutex

	failErr error

	projects    map[string]*core.Project
	activities  map[string][]core.ActivityEntry
	agentStates map[string]map[string]map[string]interface{}

	calls []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:    make(map[string]*core.Project),
		activities:  make(map[string][]core.ActivityEntry),
		agentStates: make(map[string]map[string]map[string]interface{}),
	}
}

// WithError makes every store operation fail with err.
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.failErr = err
	return m
}

// SeedProject inserts a project as-is, bypassing validation. Useful for
// tests that need a fixed project ID.
func (m *MemoryStore) SeedProject(p *core.Project) *core.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	m.projects[p.ID] = &stored
	out := stored
	return &out
}

// CreateProject creates a project with generated ID and initial defaults.
func (m *MemoryStore) CreateProject(ctx context.Context, name, description string) (*core.Project, error) {
	m.record("CreateProject")
	if m.failErr != nil {
		return nil, m.failErr
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrValidation(core.CodeEmptyName, "project name cannot be empty")
	}

	now := time.Now().UTC()
	project := &core.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      core.ProjectStatusActive,
		Phase:       core.ProjectPhaseInitial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.projects[project.ID] = project
	m.mu.Unlock()

	out := *project
	return &out, nil
}

// GetProject retrieves a project by ID.
func (m *MemoryStore) GetProject(ctx context.Context, id string) (*core.Project, error) {
	m.record("GetProject")
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, core.ErrNotFound("project", id)
	}
	out := *project
	return &out, nil
}

// UpdateProject applies whitelisted field updates.
func (m *MemoryStore) UpdateProject(ctx context.Context, id string, updates map[string]interface{}) (*core.Project, error) {
	m.record("UpdateProject")
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, core.ErrNotFound("project", id)
	}

	updated := *project
	for field, value := range updates {
		switch field {
		case "name":
			name, ok := value.(string)
			if !ok || strings.TrimSpace(name) == "" {
				return nil, core.ErrValidation(core.CodeEmptyName, "project name cannot be empty")
			}
			updated.Name = strings.TrimSpace(name)
		case "description":
			description, ok := value.(string)
			if !ok {
				return nil, core.ErrValidation("INVALID_FIELD", `project field "description" must be a string`)
			}
			updated.Description = description
		case "status":
			status, ok := value.(string)
			if !ok || (status != core.ProjectStatusActive && status != core.ProjectStatusArchived) {
				return nil, core.ErrValidation("INVALID_STATUS", fmt.Sprintf("unknown project status %v", value))
			}
			updated.Status = status
		case "phase":
			phase, ok := value.(string)
			if !ok {
				return nil, core.ErrValidation("INVALID_FIELD", `project field "phase" must be a string`)
			}
			updated.Phase = phase
		case "progress":
			progress, ok := asInt(value)
			if !ok || progress < 0 || progress > 100 {
				return nil, core.ErrValidation("INVALID_PROGRESS", "progress must be between 0 and 100")
			}
			updated.Progress = progress
		default:
			return nil, core.ErrValidation("INVALID_FIELD",
				fmt.Sprintf("project field %q cannot be updated", field))
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	m.projects[id] = &updated
	out := updated
	return &out, nil
}

// LogActivity appends an activity entry for a project.
func (m *MemoryStore) LogActivity(ctx context.Context, entry core.ActivityEntry) error {
	m.record("LogActivity")
	if m.failErr != nil {
		return m.failErr
	}

	var missing []string
	if entry.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if entry.Agent == "" {
		missing = append(missing, "agent")
	}
	if entry.Action == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		return core.ErrValidation(core.CodeMissingFields,
			fmt.Sprintf("activity missing required fields: %s", strings.Join(missing, ", ")))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[entry.ProjectID]; !ok {
		return core.ErrNotFound("project", entry.ProjectID)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.activities[entry.ProjectID] = append(m.activities[entry.ProjectID], entry)
	return nil
}

// Activities returns a project's activity log, newest first.
func (m *MemoryStore) Activities(ctx context.Context, projectID string, limit int) ([]core.ActivityEntry, error) {
	m.record("Activities")
	if m.failErr != nil {
		return nil, m.failErr
	}
	if limit <= 0 {
		limit = 50
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]core.ActivityEntry(nil), m.activities[projectID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UpdateAgentState replaces one agent's state within a project.
func (m *MemoryStore) UpdateAgentState(ctx context.Context, projectID, agent string, state map[string]interface{}) error {
	m.record("UpdateAgentState")
	if m.failErr != nil {
		return m.failErr
	}
	if projectID == "" || agent == "" {
		return core.ErrValidation(core.CodeMissingFields, "agent state requires project id and agent name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return core.ErrNotFound("project", projectID)
	}

	states, ok := m.agentStates[projectID]
	if !ok {
		states = make(map[string]map[string]interface{})
		m.agentStates[projectID] = states
	}
	states[agent] = copyState(state)
	return nil
}

// GetAgentState retrieves one agent's state within a project.
func (m *MemoryStore) GetAgentState(ctx context.Context, projectID, agent string) (map[string]interface{}, error) {
	m.record("GetAgentState")
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.agentStates[projectID][agent]
	if !ok {
		return nil, core.ErrNotFound("agent state", fmt.Sprintf("%s in project %s", agent, projectID))
	}
	return copyState(state), nil
}

// GetProjectProgress aggregates project and per-agent progress. The
// project's own progress wins when set; otherwise the mean of agent
// progress is reported.
func (m *MemoryStore) GetProjectProgress(ctx context.Context, projectID string) (*core.ProjectProgress, error) {
	m.record("GetProjectProgress")
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, core.ErrNotFound("project", projectID)
	}

	agents := make(map[string]core.AgentProgress, len(m.agentStates[projectID]))
	total := 0
	count := 0
	for name, st := range m.agentStates[projectID] {
		ap := core.AgentProgress{Status: "idle"}
		if progress, ok := asInt(st["progress"]); ok {
			ap.Progress = progress
		}
		if status, ok := st["status"].(string); ok && status != "" {
			ap.Status = status
		}
		if task, ok := st["current_task"].(string); ok {
			ap.CurrentTask = task
		}
		agents[name] = ap
		total += ap.Progress
		count++
	}

	progress := project.Progress
	if progress == 0 && count > 0 {
		progress = total / count
	}

	return &core.ProjectProgress{
		Progress:  progress,
		Phase:     project.Phase,
		Status:    project.Status,
		Agents:    agents,
		UpdatedAt: project.UpdatedAt,
	}, nil
}

// Close records the call and returns nil.
func (m *MemoryStore) Close() error {
	m.record("Close")
	return nil
}

// Calls returns the list of method calls made.
func (m *MemoryStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times a method was called.
func (m *MemoryStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c == method {
			count++
		}
	}
	return count
}

// Reset clears recorded calls but keeps stored data.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MemoryStore) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

func asInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func copyState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// Verify interface compliance.
var (
	_ core.Executor = (*FakeExecutor)(nil)
	_ core.Store    = (*MemoryStore)(nil)
)
