package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// roleCategories maps an agent's role to the task category used for
// provider routing. Unknown roles route as general work.
var roleCategories = map[core.RoleCategory]core.TaskCategory{
	core.RoleCoordinator:   core.TaskAnalysis,
	core.RoleFrontend:      core.TaskCodeGeneration,
	core.RoleBackend:       core.TaskCodeGeneration,
	core.RoleSecurity:      core.TaskSecurity,
	core.RoleQA:            core.TaskQATesting,
	core.RoleDevOps:        core.TaskDeployment,
	core.RoleDocumentation: core.TaskContentWriting,
	core.RoleSupervisor:    core.TaskAnalysis,
}

// CategoryForRole returns the routing category for an agent role.
func CategoryForRole(role core.RoleCategory) core.TaskCategory {
	if cat, ok := roleCategories[role]; ok {
		return cat
	}
	return core.TaskGeneral
}

// ExecuteTask runs one task through a named agent: resolve the agent by
// name or alias, pick the routing category from its role, invoke the
// selected provider, and record the outcome. A provider-level failure is
// captured in a FAILED outcome and never returned as an error; only
// agent resolution and provider selection fail loudly.
func (e *Engine) ExecuteTask(ctx context.Context, projectID, agentRef, description, systemPrompt string) (*core.TaskOutcome, error) {
	dir, rt, store, err := e.components()
	if err != nil {
		return nil, err
	}

	log := e.log.WithProject(projectID).WithAgent(agentRef)
	log.Info("executing task")

	agent, err := dir.Resolve(agentRef)
	if err != nil {
		return nil, core.ErrOrchestrator(core.CodeAgentResolution,
			fmt.Sprintf("agent not found: %s", agentRef)).WithCause(err)
	}

	category := CategoryForRole(agent.Role)
	if systemPrompt == "" {
		systemPrompt = buildSystemPrompt(agent)
	}

	res, err := rt.Invoke(ctx, string(category), description, systemPrompt)
	if err != nil {
		return nil, core.ErrOrchestrator(core.CodeTaskFailed, "task execution failed").WithCause(err)
	}

	outcome := newOutcome(agent, category, res)
	e.persistOutcome(ctx, store, projectID, agent, outcome)

	log.Info("task finished",
		"status", string(outcome.Status),
		"provider", string(outcome.Provider))
	return outcome, nil
}

// buildSystemPrompt derives the default system prompt from the agent's
// configured role and description.
func buildSystemPrompt(agent *core.AgentDefinition) string {
	role := agent.ConfigString("role", string(agent.Role))
	description := agent.ConfigString("description", "")
	return fmt.Sprintf(
		"You are %s, a %s in the GriPro system.\n%s\n\nRespond professionally and focus on your area of expertise.\nBe concise but thorough.",
		agent.Alias, role, description)
}

// newOutcome converts an invocation envelope into a task outcome. The
// envelope's success flag decides the status directly.
func newOutcome(agent *core.AgentDefinition, category core.TaskCategory, res *core.InvokeResult) *core.TaskOutcome {
	now := time.Now().UTC()
	if res.Success {
		return &core.TaskOutcome{
			Status:    core.StatusCompleted,
			Result:    res.Content,
			Agent:     agent.Alias,
			Provider:  res.Provider,
			Timestamp: now,
			Metadata: map[string]string{
				"agent_name": agent.Name,
				"agent_type": string(agent.Role),
				"task_type":  string(category),
			},
		}
	}
	return &core.TaskOutcome{
		Status:    core.StatusFailed,
		Agent:     agent.Alias,
		Provider:  res.Provider,
		Timestamp: now,
		Error:     res.Error,
		Metadata: map[string]string{
			"agent_name": agent.Name,
			"task_type":  string(category),
		},
	}
}

// persistOutcome records the outcome through the storage port. Best
// effort: failures are logged as warnings and never fail the task.
func (e *Engine) persistOutcome(ctx context.Context, store core.Store, projectID string, agent *core.AgentDefinition, outcome *core.TaskOutcome) {
	if store == nil {
		return
	}

	agentState := map[string]interface{}{
		"last_task":     outcome.Timestamp.Format(time.RFC3339),
		"last_status":   string(outcome.Status),
		"provider_used": string(outcome.Provider),
	}
	if err := store.UpdateAgentState(ctx, projectID, agent.Alias, agentState); err != nil {
		e.log.Warn("agent state not persisted",
			"project_id", projectID, "agent", agent.Alias, "error", err)
	}

	action := core.ActionTaskCompleted
	if !outcome.Succeeded() {
		action = core.ActionTaskFailed
	}
	entry := core.ActivityEntry{
		ProjectID:   projectID,
		Agent:       agent.Alias,
		Action:      action,
		Description: fmt.Sprintf("Task executed via %s", outcome.Provider),
		Metadata:    metadataValues(outcome.Metadata),
	}
	if err := store.LogActivity(ctx, entry); err != nil {
		e.log.Warn("activity not persisted",
			"project_id", projectID, "agent", agent.Alias, "error", err)
	}
}

func metadataValues(meta map[string]string) map[string]interface{} {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
