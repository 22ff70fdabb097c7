package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.Store with SQLite storage.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	log    *logging.Logger
	mu     sync.RWMutex
}

// SQLiteStoreOption configures the store.
type SQLiteStoreOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger.
func WithSQLiteLogger(log *logging.Logger) SQLiteStoreOption {
	return func(s *SQLiteStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// pending migrations.
func NewSQLiteStore(dbPath string, opts ...SQLiteStoreOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		dbPath: dbPath,
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	// WAL mode keeps reads open during writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate runs pending migrations.
func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}

	return nil
}

// CreateProject inserts a new project and returns it.
func (s *SQLiteStore) CreateProject(ctx context.Context, name, description string) (*core.Project, error) {
	project, err := newProject(name, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO projects (id, name, description, status, phase, progress, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			project.ID, project.Name, nullableString([]byte(project.Description)),
			project.Status, project.Phase, project.Progress,
			project.CreatedAt, project.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "creating project").WithCause(err)
	}

	s.log.Info("state: project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProject(ctx, id)
}

func (s *SQLiteStore) getProject(ctx context.Context, id string) (*core.Project, error) {
	var p core.Project
	var description sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, phase, progress, created_at, updated_at
		FROM projects WHERE id = ?
	`, id).Scan(
		&p.ID, &p.Name, &description, &p.Status, &p.Phase, &p.Progress,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound("project", id)
	}
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "loading project").WithCause(err)
	}

	if description.Valid {
		p.Description = description.String
	}
	return &p, nil
}

// UpdateProject applies whitelisted field updates and returns the
// updated project.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id string, updates map[string]interface{}) (*core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProjectUpdates(project, updates); err != nil {
		return nil, err
	}

	err = withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE projects
			SET name = ?, description = ?, status = ?, phase = ?, progress = ?, updated_at = ?
			WHERE id = ?
		`,
			project.Name, nullableString([]byte(project.Description)),
			project.Status, project.Phase, project.Progress, project.UpdatedAt, id,
		)
		return err
	})
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "updating project").WithCause(err)
	}

	s.log.Info("state: project updated", "project_id", id)
	return project, nil
}

// LogActivity appends an activity entry for a project.
func (s *SQLiteStore) LogActivity(ctx context.Context, entry core.ActivityEntry) error {
	if err := prepareActivity(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getProject(ctx, entry.ProjectID); err != nil {
		return err
	}

	var metadataJSON []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}
	}

	err := withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO activities (id, project_id, agent, action, description, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			entry.ID, entry.ProjectID, entry.Agent, entry.Action,
			nullableString([]byte(entry.Description)), nullableString(metadataJSON),
			entry.CreatedAt,
		)
		return err
	})
	if err != nil {
		return core.ErrState(core.CodeStoreFailed, "logging activity").WithCause(err)
	}

	s.log.Debug("state: activity logged",
		"project_id", entry.ProjectID, "agent", entry.Agent, "action", entry.Action)
	return nil
}

// Activities lists a project's activity entries, newest first.
func (s *SQLiteStore) Activities(ctx context.Context, projectID string, limit int) ([]core.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, agent, action, description, metadata, created_at
		FROM activities
		WHERE project_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "listing activities").WithCause(err)
	}
	defer rows.Close()

	var entries []core.ActivityEntry
	for rows.Next() {
		var e core.ActivityEntry
		var description, metadataJSON sql.NullString

		err := rows.Scan(&e.ID, &e.ProjectID, &e.Agent, &e.Action, &description, &metadataJSON, &e.CreatedAt)
		if err != nil {
			return nil, core.ErrState(core.CodeStoreFailed, "scanning activity").WithCause(err)
		}
		if description.Valid {
			e.Description = description.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "iterating activities").WithCause(err)
	}

	return entries, nil
}

// UpdateAgentState upserts one agent's state within a project.
func (s *SQLiteStore) UpdateAgentState(ctx context.Context, projectID, agent string, state map[string]interface{}) error {
	if projectID == "" || agent == "" {
		return core.ErrValidation(core.CodeMissingFields, "agent state requires project id and agent name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getProject(ctx, projectID); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling agent state: %w", err)
	}

	err = withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO agent_states (project_id, agent_name, state, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(project_id, agent_name) DO UPDATE SET
				state = excluded.state,
				updated_at = excluded.updated_at
		`, projectID, agent, string(stateJSON), time.Now().UTC())
		return err
	})
	if err != nil {
		return core.ErrState(core.CodeStoreFailed, "updating agent state").WithCause(err)
	}

	s.log.Debug("state: agent state updated", "project_id", projectID, "agent", agent)
	return nil
}

// GetAgentState retrieves one agent's state within a project.
func (s *SQLiteStore) GetAgentState(ctx context.Context, projectID, agent string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM agent_states WHERE project_id = ? AND agent_name = ?",
		projectID, agent,
	).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound("agent state", fmt.Sprintf("%s in project %s", agent, projectID))
	}
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "loading agent state").WithCause(err)
	}

	var state map[string]interface{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "agent state is not valid JSON").WithCause(err)
	}
	return state, nil
}

// GetProjectProgress aggregates project and per-agent progress.
func (s *SQLiteStore) GetProjectProgress(ctx context.Context, projectID string) (*core.ProjectProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT agent_name, state FROM agent_states WHERE project_id = ?", projectID)
	if err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "loading agent states").WithCause(err)
	}
	defer rows.Close()

	states := make(map[string]map[string]interface{})
	for rows.Next() {
		var name, stateJSON string
		if err := rows.Scan(&name, &stateJSON); err != nil {
			return nil, core.ErrState(core.CodeStoreFailed, "scanning agent state").WithCause(err)
		}
		var st map[string]interface{}
		if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
			return nil, core.ErrState(core.CodeStateCorrupted, "agent state is not valid JSON").WithCause(err)
		}
		states[name] = st
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState(core.CodeStoreFailed, "iterating agent states").WithCause(err)
	}

	return buildProgress(project, states), nil
}

// nullableString converts empty byte slices to SQL NULL.
func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// Verify that SQLiteStore implements core.Store.
var _ core.Store = (*SQLiteStore)(nil)
