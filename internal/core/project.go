package core

import "time"

// Project statuses and the initial phase written at creation.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
	ProjectPhaseInitial   = "planning"
)

// Project is a client project tracked by the storage port.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Phase       string    `json:"phase"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ActivityEntry is one audit record of agent or orchestrator activity.
type ActivityEntry struct {
	ID          string                 `json:"id"`
	ProjectID   string                 `json:"project_id"`
	Agent       string                 `json:"agent"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Well-known activity actions.
const (
	ActionTaskCompleted      = "task_completed"
	ActionTaskFailed         = "task_failed"
	ActionWorkflowStarted    = "workflow_started"
	ActionWorkflowCompleted  = "workflow_completed"
	ActionAgentCommunication = "agent_communication"
	ActionProjectCreated     = "project_created"
)

// AgentProgress summarizes one agent's state within a project.
type AgentProgress struct {
	Progress    int    `json:"progress"`
	Status      string `json:"status"`
	CurrentTask string `json:"current_task,omitempty"`
}

// ProjectProgress aggregates project and per-agent progress. Progress is
// the project's own value when set, otherwise the mean of agent progress.
type ProjectProgress struct {
	Progress  int                      `json:"progress"`
	Phase     string                   `json:"phase"`
	Status    string                   `json:"status"`
	Agents    map[string]AgentProgress `json:"agents"`
	UpdatedAt time.Time                `json:"updated_at"`
}
