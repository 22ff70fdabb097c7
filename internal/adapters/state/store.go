// Package state provides the storage backends behind the core.Store
// port: SQLite for durable relational state and a single-document JSON
// fallback. Both enforce the same semantics, so callers never care
// which backend is configured.
package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// DefaultActivityLimit bounds activity listings when the caller does
// not ask for a specific amount.
const DefaultActivityLimit = 50

// newProject builds a project record in its initial state.
func newProject(name, description string) (*core.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrValidation(core.CodeEmptyName, "project name cannot be empty")
	}

	now := time.Now().UTC()
	return &core.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      core.ProjectStatusActive,
		Phase:       core.ProjectPhaseInitial,
		Progress:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// applyProjectUpdates applies whitelisted field updates to a project
// and stamps updated_at. Unknown fields are rejected.
func applyProjectUpdates(p *core.Project, updates map[string]interface{}) error {
	for field, value := range updates {
		switch field {
		case "name":
			name, ok := value.(string)
			if !ok || strings.TrimSpace(name) == "" {
				return core.ErrValidation(core.CodeEmptyName, "project name cannot be empty")
			}
			p.Name = strings.TrimSpace(name)
		case "description":
			description, ok := value.(string)
			if !ok {
				return invalidFieldType(field, "string")
			}
			p.Description = description
		case "status":
			status, ok := value.(string)
			if !ok {
				return invalidFieldType(field, "string")
			}
			if status != core.ProjectStatusActive && status != core.ProjectStatusArchived {
				return core.ErrValidation("INVALID_STATUS",
					fmt.Sprintf("unknown project status %q (valid: %s, %s)",
						status, core.ProjectStatusActive, core.ProjectStatusArchived))
			}
			p.Status = status
		case "phase":
			phase, ok := value.(string)
			if !ok {
				return invalidFieldType(field, "string")
			}
			p.Phase = phase
		case "progress":
			progress, ok := toInt(value)
			if !ok {
				return invalidFieldType(field, "integer")
			}
			if progress < 0 || progress > 100 {
				return core.ErrValidation("INVALID_PROGRESS", "progress must be between 0 and 100")
			}
			p.Progress = progress
		default:
			return core.ErrValidation("INVALID_FIELD",
				fmt.Sprintf("project field %q cannot be updated", field))
		}
	}

	p.UpdatedAt = time.Now().UTC()
	return nil
}

func invalidFieldType(field, want string) error {
	return core.ErrValidation("INVALID_FIELD",
		fmt.Sprintf("project field %q must be a %s", field, want))
}

// toInt accepts the integer encodings that callers and JSON decoding produce.
func toInt(value interface{}) (int, bool) {
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

// prepareActivity validates an entry and fills its generated fields.
func prepareActivity(entry *core.ActivityEntry) error {
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

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return nil
}

// buildProgress aggregates per-agent state into the project progress
// view. The project's own progress wins when set; otherwise the mean
// of agent progress is reported.
func buildProgress(project *core.Project, states map[string]map[string]interface{}) *core.ProjectProgress {
	agents := make(map[string]core.AgentProgress, len(states))
	total := 0
	count := 0

	for name, st := range states {
		ap := core.AgentProgress{Status: "idle"}
		if progress, ok := toInt(st["progress"]); ok {
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
	}
}

// cloneState copies a state map one level deep.
func cloneState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
