package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// JSONStore implements core.Store with a single JSON document on disk.
// The whole document is rewritten atomically on every mutation, with a
// checksum envelope and a backup of the previous version.
type JSONStore struct {
	path       string
	backupPath string
	log        *logging.Logger

	mu  sync.RWMutex
	doc *jsonDocument
}

type jsonDocument struct {
	Projects    map[string]*core.Project                     `json:"projects"`
	Activities  map[string][]core.ActivityEntry              `json:"activities"`
	AgentStates map[string]map[string]map[string]interface{} `json:"agent_states"`
}

func newJSONDocument() *jsonDocument {
	return &jsonDocument{
		Projects:    make(map[string]*core.Project),
		Activities:  make(map[string][]core.ActivityEntry),
		AgentStates: make(map[string]map[string]map[string]interface{}),
	}
}

// docEnvelope wraps the document with integrity metadata.
type docEnvelope struct {
	Version   int           `json:"version"`
	Checksum  string        `json:"checksum"`
	UpdatedAt time.Time     `json:"updated_at"`
	Document  *jsonDocument `json:"document"`
}

// JSONStoreOption configures the store.
type JSONStoreOption func(*JSONStore)

// WithJSONBackupPath sets the backup file path.
func WithJSONBackupPath(path string) JSONStoreOption {
	return func(s *JSONStore) {
		s.backupPath = path
	}
}

// WithJSONLogger sets the logger.
func WithJSONLogger(log *logging.Logger) JSONStoreOption {
	return func(s *JSONStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewJSONStore opens (or creates) the JSON document at path.
func NewJSONStore(path string, opts ...JSONStoreOption) (*JSONStore, error) {
	s := &JSONStore{
		path:       path,
		backupPath: path + ".bak",
		log:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// Close flushes nothing; every mutation is already persisted.
func (s *JSONStore) Close() error {
	return nil
}

// Path returns the document file path.
func (s *JSONStore) Path() string {
	return s.path
}

// BackupPath returns the backup file path.
func (s *JSONStore) BackupPath() string {
	return s.backupPath
}

func (s *JSONStore) load() (*jsonDocument, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return newJSONDocument(), nil
	}

	doc, err := loadDocument(s.path)
	if err != nil {
		// Fall back to the backup before giving up.
		backupDoc, backupErr := loadDocument(s.backupPath)
		if backupErr != nil {
			return nil, fmt.Errorf("loading state: %w (backup also failed: %v)", err, backupErr)
		}
		s.log.Warn("state: primary document unreadable, loaded backup", "path", s.path, "error", err)
		return backupDoc, nil
	}
	return doc, nil
}

func loadDocument(path string) (*jsonDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var envelope docEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if envelope.Document == nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "document missing from envelope")
	}

	docBytes, err := json.Marshal(envelope.Document)
	if err != nil {
		return nil, fmt.Errorf("marshaling document for checksum: %w", err)
	}
	hash := sha256.Sum256(docBytes)
	if hex.EncodeToString(hash[:]) != envelope.Checksum {
		return nil, core.ErrState(core.CodeStateCorrupted, "checksum mismatch")
	}

	doc := envelope.Document
	if doc.Projects == nil {
		doc.Projects = make(map[string]*core.Project)
	}
	if doc.Activities == nil {
		doc.Activities = make(map[string][]core.ActivityEntry)
	}
	if doc.AgentStates == nil {
		doc.AgentStates = make(map[string]map[string]map[string]interface{})
	}
	return doc, nil
}

// save persists the document. Callers hold the write lock.
func (s *JSONStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	// Keep the previous version around for recovery.
	if _, err := os.Stat(s.path); err == nil {
		if err := s.createBackup(); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
	}

	docBytes, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	hash := sha256.Sum256(docBytes)

	envelope := docEnvelope{
		Version:   1,
		Checksum:  hex.EncodeToString(hash[:]),
		UpdatedAt: time.Now().UTC(),
		Document:  s.doc,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

func (s *JSONStore) createBackup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return atomicWriteFile(s.backupPath, data, 0o644)
}

// CreateProject inserts a new project and returns it.
func (s *JSONStore) CreateProject(_ context.Context, name, description string) (*core.Project, error) {
	project, err := newProject(name, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Projects[project.ID] = project
	if err := s.save(); err != nil {
		delete(s.doc.Projects, project.ID)
		return nil, core.ErrState(core.CodeStoreFailed, "creating project").WithCause(err)
	}

	s.log.Info("state: project created", "project_id", project.ID, "name", project.Name)
	out := *project
	return &out, nil
}

// GetProject retrieves a project by ID.
func (s *JSONStore) GetProject(_ context.Context, id string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.doc.Projects[id]
	if !ok {
		return nil, core.ErrNotFound("project", id)
	}
	out := *project
	return &out, nil
}

// UpdateProject applies whitelisted field updates and returns the
// updated project.
func (s *JSONStore) UpdateProject(_ context.Context, id string, updates map[string]interface{}) (*core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.doc.Projects[id]
	if !ok {
		return nil, core.ErrNotFound("project", id)
	}

	updated := *project
	if err := applyProjectUpdates(&updated, updates); err != nil {
		return nil, err
	}

	s.doc.Projects[id] = &updated
	if err := s.save(); err != nil {
		s.doc.Projects[id] = project
		return nil, core.ErrState(core.CodeStoreFailed, "updating project").WithCause(err)
	}

	s.log.Info("state: project updated", "project_id", id)
	out := updated
	return &out, nil
}

// LogActivity appends an activity entry for a project.
func (s *JSONStore) LogActivity(_ context.Context, entry core.ActivityEntry) error {
	if err := prepareActivity(&entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Projects[entry.ProjectID]; !ok {
		return core.ErrNotFound("project", entry.ProjectID)
	}

	s.doc.Activities[entry.ProjectID] = append(s.doc.Activities[entry.ProjectID], entry)
	if err := s.save(); err != nil {
		entries := s.doc.Activities[entry.ProjectID]
		s.doc.Activities[entry.ProjectID] = entries[:len(entries)-1]
		return core.ErrState(core.CodeStoreFailed, "logging activity").WithCause(err)
	}

	s.log.Debug("state: activity logged",
		"project_id", entry.ProjectID, "agent", entry.Agent, "action", entry.Action)
	return nil
}

// Activities lists a project's activity entries, newest first.
func (s *JSONStore) Activities(_ context.Context, projectID string, limit int) ([]core.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]core.ActivityEntry(nil), s.doc.Activities[projectID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UpdateAgentState upserts one agent's state within a project.
func (s *JSONStore) UpdateAgentState(_ context.Context, projectID, agent string, state map[string]interface{}) error {
	if projectID == "" || agent == "" {
		return core.ErrValidation(core.CodeMissingFields, "agent state requires project id and agent name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Projects[projectID]; !ok {
		return core.ErrNotFound("project", projectID)
	}

	states, ok := s.doc.AgentStates[projectID]
	if !ok {
		states = make(map[string]map[string]interface{})
		s.doc.AgentStates[projectID] = states
	}

	previous, hadPrevious := states[agent]
	states[agent] = cloneState(state)

	if err := s.save(); err != nil {
		if hadPrevious {
			states[agent] = previous
		} else {
			delete(states, agent)
		}
		return core.ErrState(core.CodeStoreFailed, "updating agent state").WithCause(err)
	}

	s.log.Debug("state: agent state updated", "project_id", projectID, "agent", agent)
	return nil
}

// GetAgentState retrieves one agent's state within a project.
func (s *JSONStore) GetAgentState(_ context.Context, projectID, agent string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.doc.AgentStates[projectID][agent]
	if !ok {
		return nil, core.ErrNotFound("agent state", fmt.Sprintf("%s in project %s", agent, projectID))
	}
	return cloneState(state), nil
}

// GetProjectProgress aggregates project and per-agent progress.
func (s *JSONStore) GetProjectProgress(_ context.Context, projectID string) (*core.ProjectProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.doc.Projects[projectID]
	if !ok {
		return nil, core.ErrNotFound("project", projectID)
	}
	return buildProgress(project, s.doc.AgentStates[projectID]), nil
}

// Verify that JSONStore implements core.Store.
var _ core.Store = (*JSONStore)(nil)
