package engine

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// recentActivityLimit bounds the activity listing in a status report.
const recentActivityLimit = 10

// WorkflowSummary is the active-run slice of a status report.
type WorkflowSummary struct {
	Type     core.WorkflowType `json:"type"`
	Phase    string            `json:"phase"`
	Progress int               `json:"progress"`
}

// ProjectStatus is the aggregate view of one project.
type ProjectStatus struct {
	Project          *core.Project         `json:"project"`
	Progress         *core.ProjectProgress `json:"progress"`
	RecentActivities []core.ActivityEntry  `json:"recent_activities"`
	ActiveWorkflow   *WorkflowSummary      `json:"active_workflow,omitempty"`
}

// ProjectStatus returns the project record, aggregated progress, recent
// activities, and a summary of any in-flight workflow run.
func (e *Engine) ProjectStatus(ctx context.Context, projectID string) (*ProjectStatus, error) {
	_, _, store, err := e.components()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, core.ErrOrchestrator(core.CodeNoStorage, "storage not configured")
	}

	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	progress, err := store.GetProjectProgress(ctx, projectID)
	if err != nil {
		return nil, err
	}
	activities, err := store.Activities(ctx, projectID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:          project,
		Progress:         progress,
		RecentActivities: activities,
	}
	if run, ok := e.ActiveRun(projectID); ok {
		status.ActiveWorkflow = &WorkflowSummary{
			Type:     run.Type,
			Phase:    run.CurrentPhase,
			Progress: run.Progress,
		}
	}
	return status, nil
}

// CreateProject creates a project record and logs the creation activity.
// Creation requires storage and fails without it.
func (e *Engine) CreateProject(ctx context.Context, name, description string) (*core.Project, error) {
	_, _, store, err := e.components()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, core.ErrOrchestrator(core.CodeNoStorage, "cannot create project without storage")
	}

	project, err := store.CreateProject(ctx, name, description)
	if err != nil {
		return nil, err
	}

	entry := core.ActivityEntry{
		ProjectID:   project.ID,
		Agent:       "Orchestrator",
		Action:      core.ActionProjectCreated,
		Description: fmt.Sprintf("Created project: %s", project.Name),
	}
	if err := store.LogActivity(ctx, entry); err != nil {
		e.log.Warn("creation activity not persisted", "project_id", project.ID, "error", err)
	}

	e.log.Info("project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}
