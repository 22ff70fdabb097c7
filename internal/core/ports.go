package core

import "context"

// Executor is the execution port to one provider backend. Implementations
// signal unavailability and failures via errors; the router converts those
// into failed InvokeResult envelopes so callers never crash on them.
type Executor interface {
	// ID returns the provider this executor serves.
	ID() ProviderID

	// Invoke runs one prompt and returns the raw text output.
	Invoke(ctx context.Context, prompt, systemContext string) (string, error)

	// Probe checks whether the backend can accept work right now.
	Probe(ctx context.Context) error
}

// Store is the storage port. Implementations retry transient failures
// internally with bounded backoff; callers only observe terminal errors.
type Store interface {
	CreateProject(ctx context.Context, name, description string) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	UpdateProject(ctx context.Context, id string, updates map[string]interface{}) (*Project, error)

	LogActivity(ctx context.Context, entry ActivityEntry) error
	Activities(ctx context.Context, projectID string, limit int) ([]ActivityEntry, error)

	UpdateAgentState(ctx context.Context, projectID, agent string, state map[string]interface{}) error
	GetAgentState(ctx context.Context, projectID, agent string) (map[string]interface{}, error)

	GetProjectProgress(ctx context.Context, projectID string) (*ProjectProgress, error)

	Close() error
}
