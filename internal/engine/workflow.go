package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/directory"
)

// Default execution tuning, overridable through the workflow configuration.
const (
	defaultContextLimit   = 500
	defaultMessagePreview = 100
)

// phaseTasks is the base task text per known phase name. Unrecognized
// phase names fall back to a generic instruction.
var phaseTasks = map[string]string{
	"planning":      "Create a detailed project plan with milestones, tasks, and timeline.",
	"frontend":      "Design and implement the frontend components and user interface.",
	"backend":       "Implement the backend API, business logic, and data models.",
	"testing":       "Create comprehensive test cases and verify functionality.",
	"security":      "Perform security analysis and identify potential vulnerabilities.",
	"deployment":    "Prepare deployment configuration and infrastructure setup.",
	"documentation": "Write user documentation, API docs, and guides.",
	"review":        "Review all work, provide feedback, and ensure quality standards.",
}

// RunWorkflow executes a workflow template phase by phase. Every phase's
// outcome is recorded under its phase name, so the result map always
// carries exactly the template's phases; a phase failure never stops the
// run. The one exception is phase-agent resolution while building the
// phase task, which aborts the whole run as a workflow error. Successful
// output feeds later phases as rolling context, truncated per phase.
func (e *Engine) RunWorkflow(ctx context.Context, projectID, templateType, initialContext string) (*core.WorkflowResult, error) {
	dir, _, store, err := e.components()
	if err != nil {
		return nil, err
	}

	wfType, err := core.ParseWorkflowType(templateType)
	if err != nil {
		return nil, err
	}
	template, ok := core.TemplateFor(wfType)
	if !ok || len(template.Phases) == 0 {
		return nil, core.ErrWorkflow(core.CodeEmptyTemplate,
			fmt.Sprintf("no phases defined for workflow %q", wfType))
	}

	log := e.log.WithProject(projectID).WithWorkflow(string(wfType))
	log.Info("starting workflow", "phases", len(template.Phases))

	run := &core.WorkflowRun{
		ProjectID:    projectID,
		Type:         wfType,
		CurrentPhase: core.RunPhaseInitializing,
		Agents:       template.Agents(),
		StartedAt:    time.Now().UTC(),
	}
	e.runMu.Lock()
	e.runs[projectID] = run
	e.runMu.Unlock()
	// The run entry is discarded on every exit path.
	defer func() {
		e.runMu.Lock()
		delete(e.runs, projectID)
		e.runMu.Unlock()
	}()

	e.logWorkflowEvent(ctx, store, projectID, core.ActionWorkflowStarted,
		fmt.Sprintf("Started %s workflow", wfType),
		map[string]interface{}{"phases": template.PhaseNames()})

	result := &core.WorkflowResult{
		ProjectID: projectID,
		Type:      wfType,
		Phases:    template.PhaseNames(),
		Outcomes:  make(map[string]*core.TaskOutcome, len(template.Phases)),
	}
	rollingContext := initialContext
	total := len(template.Phases)

	for i, phase := range template.Phases {
		e.updateRun(run, phase.Name, i*100/total)
		log.Info("executing phase", "phase", phase.Name, "agent", phase.Agent)

		description, err := e.buildPhaseTask(dir, phase, rollingContext)
		if err != nil {
			log.Error("workflow aborted", "phase", phase.Name, "error", err)
			return nil, core.ErrWorkflow(core.CodeWorkflowFailed, "workflow execution failed").WithCause(err)
		}

		outcome, err := e.ExecuteTask(ctx, projectID, phase.Agent, description, "")
		if err != nil {
			log.Error("phase failed", "phase", phase.Name, "error", err)
			result.Outcomes[phase.Name] = &core.TaskOutcome{
				Status:    core.StatusFailed,
				Agent:     phase.Agent,
				Timestamp: time.Now().UTC(),
				Error:     err.Error(),
			}
			continue
		}

		result.Outcomes[phase.Name] = outcome
		if outcome.Succeeded() && outcome.Result != "" {
			rollingContext += fmt.Sprintf("\n\n[%s output]:\n%s",
				phase.Name, truncate(outcome.Result, e.contextLimit()))
		}
		e.completePhase(run, phase.Name)
	}

	e.finishRun(run)
	result.Progress = 100
	result.Completed = e.snapshotRun(run).CompletedPhases

	e.logWorkflowEvent(ctx, store, projectID, core.ActionWorkflowCompleted,
		fmt.Sprintf("Completed %s workflow", wfType),
		map[string]interface{}{"results": outcomeStatuses(result.Outcomes)})

	log.Info("workflow completed", "completed_phases", len(result.Completed))
	return result, nil
}

// buildPhaseTask resolves the phase agent and renders the phase task.
// Resolution happens here, before the guarded task execution, so a
// dangling template agent aborts the run instead of recording a failed
// phase.
func (e *Engine) buildPhaseTask(dir *directory.Directory, phase core.Phase, rollingContext string) (string, error) {
	agent, err := dir.Resolve(phase.Agent)
	if err != nil {
		return "", err
	}

	base, ok := phaseTasks[phase.Name]
	if !ok {
		base = fmt.Sprintf("Execute %s phase tasks.", phase.Name)
	}
	if rollingContext == "" {
		rollingContext = "No additional context provided."
	}
	return fmt.Sprintf("Phase: %s\nAgent: %s (%s)\n\nTask: %s\n\nContext:\n%s",
		phase.Name, agent.Alias, agent.ConfigString("role", ""), base, rollingContext), nil
}

// logWorkflowEvent records a run-level activity entry, best-effort.
func (e *Engine) logWorkflowEvent(ctx context.Context, store core.Store, projectID, action, description string, metadata map[string]interface{}) {
	if store == nil {
		return
	}
	entry := core.ActivityEntry{
		ProjectID:   projectID,
		Agent:       "Orchestrator",
		Action:      action,
		Description: description,
		Metadata:    metadata,
	}
	if err := store.LogActivity(ctx, entry); err != nil {
		e.log.Warn("workflow activity not persisted",
			"project_id", projectID, "action", action, "error", err)
	}
}

func outcomeStatuses(outcomes map[string]*core.TaskOutcome) map[string]interface{} {
	statuses := make(map[string]interface{}, len(outcomes))
	for phase, outcome := range outcomes {
		statuses[phase] = string(outcome.Status)
	}
	return statuses
}

// updateRun advances the run's reported phase and progress.
func (e *Engine) updateRun(run *core.WorkflowRun, phase string, progress int) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	run.CurrentPhase = phase
	run.Progress = progress
}

// completePhase records a phase whose task call returned an outcome.
func (e *Engine) completePhase(run *core.WorkflowRun, phase string) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	run.CompletedPhases = append(run.CompletedPhases, phase)
}

func (e *Engine) finishRun(run *core.WorkflowRun) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	run.Progress = 100
	run.CurrentPhase = core.RunPhaseCompleted
}

func (e *Engine) snapshotRun(run *core.WorkflowRun) core.WorkflowRun {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return run.Snapshot()
}

func (e *Engine) contextLimit() int {
	if e.cfg.Workflow.ContextLimit > 0 {
		return e.cfg.Workflow.ContextLimit
	}
	return defaultContextLimit
}

func (e *Engine) messagePreview() int {
	if e.cfg.Workflow.MessagePreview > 0 {
		return e.cfg.Workflow.MessagePreview
	}
	return defaultMessagePreview
}

// truncate caps s at limit bytes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
