package core

import (
	"fmt"
	"strings"
	"time"
)

// WorkflowType names one of the closed set of workflow templates.
type WorkflowType string

const (
	WorkflowFull          WorkflowType = "full"
	WorkflowPlanning      WorkflowType = "planning"
	WorkflowDevelopment   WorkflowType = "development"
	WorkflowTesting       WorkflowType = "testing"
	WorkflowDeployment    WorkflowType = "deployment"
	WorkflowDocumentation WorkflowType = "documentation"
)

// AllWorkflowTypes returns every template name.
func AllWorkflowTypes() []WorkflowType {
	return []WorkflowType{
		WorkflowFull,
		WorkflowPlanning,
		WorkflowDevelopment,
		WorkflowTesting,
		WorkflowDeployment,
		WorkflowDocumentation,
	}
}

// Valid reports whether the type names a known template.
func (t WorkflowType) Valid() bool {
	switch t {
	case WorkflowFull, WorkflowPlanning, WorkflowDevelopment,
		WorkflowTesting, WorkflowDeployment, WorkflowDocumentation:
		return true
	}
	return false
}

// ParseWorkflowType resolves free-form input into a workflow type.
func ParseWorkflowType(raw string) (WorkflowType, error) {
	t := WorkflowType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		valid := make([]string, 0, len(AllWorkflowTypes()))
		for _, w := range AllWorkflowTypes() {
			valid = append(valid, string(w))
		}
		return "", ErrWorkflow(CodeInvalidTemplate,
			fmt.Sprintf("invalid workflow type %q, valid: %s", raw, strings.Join(valid, ", ")))
	}
	return t, nil
}

// Phase is one step of a workflow template, bound to exactly one agent.
type Phase struct {
	Name  string `json:"name"`
	Agent string `json:"agent"`
}

// WorkflowTemplate is a fixed ordered sequence of phases.
type WorkflowTemplate struct {
	Type   WorkflowType `json:"type"`
	Phases []Phase      `json:"phases"`
}

// PhaseNames returns the phase names in template order.
func (t WorkflowTemplate) PhaseNames() []string {
	names := make([]string, len(t.Phases))
	for i, p := range t.Phases {
		names[i] = p.Name
	}
	return names
}

// Agents returns the participating agent names in template order.
func (t WorkflowTemplate) Agents() []string {
	agents := make([]string, len(t.Phases))
	for i, p := range t.Phases {
		agents[i] = p.Agent
	}
	return agents
}

// workflowTemplates is the closed template set. Each run copies its
// template so callers can never mutate the definitions.
var workflowTemplates = map[WorkflowType][]Phase{
	WorkflowFull: {
		{Name: "planning", Agent: "primo"},
		{Name: "frontend", Agent: "fronti_frontend"},
		{Name: "backend", Agent: "baky_backend"},
		{Name: "testing", Agent: "qai_testing"},
		{Name: "security", Agent: "secu_security"},
		{Name: "deployment", Agent: "devi_devops"},
		{Name: "documentation", Agent: "mark_marketing"},
		{Name: "review", Agent: "guru_supervisor"},
	},
	WorkflowPlanning: {
		{Name: "planning", Agent: "primo"},
		{Name: "review", Agent: "guru_supervisor"},
	},
	WorkflowDevelopment: {
		{Name: "frontend", Agent: "fronti_frontend"},
		{Name: "backend", Agent: "baky_backend"},
		{Name: "testing", Agent: "qai_testing"},
	},
	WorkflowTesting: {
		{Name: "testing", Agent: "qai_testing"},
		{Name: "security", Agent: "secu_security"},
	},
	WorkflowDeployment: {
		{Name: "deployment", Agent: "devi_devops"},
	},
	WorkflowDocumentation: {
		{Name: "documentation", Agent: "mark_marketing"},
	},
}

// TemplateFor returns the template for a workflow type. The template's
// phase slice is a fresh copy.
func TemplateFor(t WorkflowType) (WorkflowTemplate, bool) {
	phases, ok := workflowTemplates[t]
	if !ok {
		return WorkflowTemplate{}, false
	}
	out := WorkflowTemplate{Type: t, Phases: make([]Phase, len(phases))}
	copy(out.Phases, phases)
	return out, true
}

// Run-level phase labels outside the template's own phase names.
const (
	RunPhaseInitializing = "initializing"
	RunPhaseCompleted    = "completed"
)

// WorkflowRun is the ephemeral state of one in-flight workflow. It is
// created when a run starts and discarded when the run ends.
type WorkflowRun struct {
	ProjectID       string       `json:"project_id"`
	Type            WorkflowType `json:"type"`
	CurrentPhase    string       `json:"current_phase"`
	CompletedPhases []string     `json:"completed_phases"`
	Progress        int          `json:"progress"`
	Agents          []string     `json:"agents"`
	StartedAt       time.Time    `json:"started_at"`
}

// Snapshot returns an independent copy for read-only observers.
func (r *WorkflowRun) Snapshot() WorkflowRun {
	out := *r
	out.CompletedPhases = append([]string(nil), r.CompletedPhases...)
	out.Agents = append([]string(nil), r.Agents...)
	return out
}

// WorkflowResult is what a finished run returns: one outcome per template
// phase, keyed by phase name, with Phases preserving template order.
type WorkflowResult struct {
	ProjectID string                  `json:"project_id"`
	Type      WorkflowType            `json:"type"`
	Phases    []string                `json:"phases"`
	Outcomes  map[string]*TaskOutcome `json:"outcomes"`
	Completed []string                `json:"completed"`
	Progress  int                     `json:"progress"`
}

// Exchange is the structured payload of one agent-to-agent message.
type Exchange struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Message   string     `json:"message"`
	Response  string     `json:"response"`
	Status    TaskStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}
