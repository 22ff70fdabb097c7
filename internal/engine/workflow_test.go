package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/testutil"
)

var fullPhaseOrder = []string{
	"planning", "frontend", "backend", "testing",
	"security", "deployment", "documentation", "review",
}

func TestRunWorkflow_FullTemplate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	project, err := store.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	e := newTestEngine(t, nil, store, testExecutors("phase done"))

	res, err := e.RunWorkflow(ctx, project.ID, "full", "Build an e-commerce app")
	if err != nil {
		t.Fatalf("RunWorkflow() error = %v", err)
	}

	if res.ProjectID != project.ID {
		t.Errorf("result project = %q, want %q", res.ProjectID, project.ID)
	}
	if res.Type != core.WorkflowFull {
		t.Errorf("result type = %q, want full", res.Type)
	}
	if !reflect.DeepEqual(res.Phases, fullPhaseOrder) {
		t.Errorf("result phases = %v, want %v", res.Phases, fullPhaseOrder)
	}
	if !reflect.DeepEqual(res.Completed, fullPhaseOrder) {
		t.Errorf("completed phases = %v, want all in order", res.Completed)
	}
	if res.Progress != 100 {
		t.Errorf("result progress = %d, want 100", res.Progress)
	}

	for _, phase := range fullPhaseOrder {
		outcome, ok := res.Outcomes[phase]
		if !ok {
			t.Fatalf("missing outcome for phase %q", phase)
		}
		if outcome.Status != core.StatusCompleted {
			t.Errorf("phase %q status = %q, want completed", phase, outcome.Status)
		}
	}

	entries, err := store.Activities(ctx, project.ID, 20)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	// One entry per phase task plus the run start and end markers.
	if len(entries) != 10 {
		t.Fatalf("activities = %d, want 10", len(entries))
	}
	if entries[0].Action != core.ActionWorkflowCompleted {
		t.Errorf("newest activity = %q, want workflow_completed", entries[0].Action)
	}
	if entries[0].Agent != "Orchestrator" {
		t.Errorf("workflow activity agent = %q, want Orchestrator", entries[0].Agent)
	}
	if _, ok := entries[0].Metadata["results"]; !ok {
		t.Error("workflow_completed metadata should carry per-phase results")
	}
	last := entries[len(entries)-1]
	if last.Action != core.ActionWorkflowStarted {
		t.Errorf("oldest activity = %q, want workflow_started", last.Action)
	}
	if last.Description != "Started full workflow" {
		t.Errorf("workflow_started description = %q", last.Description)
	}
}

func TestRunWorkflow_ProviderFailureTolerated(t *testing.T) {
	ctx := context.Background()

	executors := map[core.ProviderID]core.Executor{
		core.ProviderClaude: testutil.NewFakeExecutor(core.ProviderClaude).WithResponse("security ok"),
		core.ProviderGemini: testutil.NewFakeExecutor(core.ProviderGemini).WithError(errors.New("gemini crashed")),
	}
	e := newTestEngine(t, nil, nil, executors)

	res, err := e.RunWorkflow(ctx, "p1", "testing", "")
	if err != nil {
		t.Fatalf("RunWorkflow() error = %v, phase failures must not abort the run", err)
	}

	qa, ok := res.Outcomes["testing"]
	if !ok {
		t.Fatal("missing outcome for testing phase")
	}
	if qa.Status != core.StatusFailed {
		t.Errorf("testing status = %q, want failed", qa.Status)
	}
	if qa.Agent != "Qai" {
		t.Errorf("testing agent = %q, want Qai", qa.Agent)
	}
	if qa.Provider != core.ProviderGemini {
		t.Errorf("testing provider = %q, want gemini", qa.Provider)
	}
	if !strings.Contains(qa.Error, "gemini crashed") {
		t.Errorf("testing error = %q, want delegate failure text", qa.Error)
	}

	security, ok := res.Outcomes["security"]
	if !ok {
		t.Fatal("missing outcome for security phase")
	}
	if security.Status != core.StatusCompleted {
		t.Errorf("security status = %q, want completed", security.Status)
	}
	if security.Result != "security ok" {
		t.Errorf("security result = %q", security.Result)
	}

	// A phase whose task ran to a failed outcome still counts as processed.
	if !reflect.DeepEqual(res.Completed, []string{"testing", "security"}) {
		t.Errorf("completed = %v, want both phases", res.Completed)
	}
	if res.Progress != 100 {
		t.Errorf("progress = %d, want 100", res.Progress)
	}
}

func TestRunWorkflow_AllProvidersDown(t *testing.T) {
	claude := testutil.NewFakeExecutor(core.ProviderClaude).WithProbeError(errors.New("binary missing"))
	e := newTestEngine(t, nil, nil, map[core.ProviderID]core.Executor{core.ProviderClaude: claude})

	res, err := e.RunWorkflow(context.Background(), "p1", "planning", "")
	if err != nil {
		t.Fatalf("RunWorkflow() error = %v, selection failures are recorded per phase", err)
	}

	for _, phase := range []string{"planning", "review"} {
		outcome, ok := res.Outcomes[phase]
		if !ok {
			t.Fatalf("missing outcome for phase %q", phase)
		}
		if outcome.Status != core.StatusFailed {
			t.Errorf("phase %q status = %q, want failed", phase, outcome.Status)
		}
		if !strings.Contains(outcome.Error, "NO_PROVIDER_AVAILABLE") {
			t.Errorf("phase %q error = %q, want selection failure", phase, outcome.Error)
		}
	}
	// The template agent reference is all that is known when selection fails.
	if got := res.Outcomes["planning"].Agent; got != "primo" {
		t.Errorf("planning agent = %q, want raw template reference", got)
	}

	if len(res.Completed) != 0 {
		t.Errorf("completed = %v, want none when no task ran", res.Completed)
	}
	if res.Progress != 100 {
		t.Errorf("progress = %d, want 100", res.Progress)
	}
}

func TestRunWorkflow_UnknownTemplate(t *testing.T) {
	e := newTestEngine(t, nil, nil, testExecutors("ok"))

	_, err := e.RunWorkflow(context.Background(), "p1", "sprint", "")
	if err == nil {
		t.Fatal("RunWorkflow() with unknown template should fail")
	}
	if !errors.Is(err, core.ErrWorkflow(core.CodeInvalidTemplate, "")) {
		t.Errorf("error = %v, want INVALID_TEMPLATE", err)
	}
	if !strings.Contains(err.Error(), "full") {
		t.Errorf("error = %v, want valid template names listed", err)
	}
}

func TestRunWorkflow_MissingPhaseAgentAborts(t *testing.T) {
	claude := testutil.NewFakeExecutor(core.ProviderClaude)
	gemini := testutil.NewFakeExecutor(core.ProviderGemini)
	e := newTestEngine(t, nil, nil, map[core.ProviderID]core.Executor{
		core.ProviderClaude: claude,
		core.ProviderGemini: gemini,
	})

	if err := e.Directory().Remove("qai_testing"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	res, err := e.RunWorkflow(context.Background(), "p1", "testing", "")
	if err == nil {
		t.Fatal("RunWorkflow() with a dangling template agent should fail")
	}
	if !errors.Is(err, core.ErrWorkflow(core.CodeWorkflowFailed, "")) {
		t.Errorf("error = %v, want WORKFLOW_FAILED", err)
	}
	if !errors.Is(err, core.ErrNotFound("", "")) {
		t.Errorf("error = %v, want wrapped not-found cause", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on abort", res)
	}

	// Nothing ran: the first phase aborted before any invocation.
	if gemini.CallCount("Invoke") != 0 || claude.CallCount("Invoke") != 0 {
		t.Error("no provider should have been invoked")
	}
	if _, ok := e.ActiveRun("p1"); ok {
		t.Error("aborted run should not stay registered")
	}
}

func TestRunWorkflow_ContextFlowsBetweenPhases(t *testing.T) {
	claude := testutil.NewFakeExecutor(core.ProviderClaude).WithResponse("PLANNING-OUTPUT-MARKER")
	e := newTestEngine(t, nil, nil, map[core.ProviderID]core.Executor{core.ProviderClaude: claude})

	if _, err := e.RunWorkflow(context.Background(), "p1", "planning", ""); err != nil {
		t.Fatalf("RunWorkflow() error = %v", err)
	}

	prompts := claude.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("invocations = %d, want 2", len(prompts))
	}

	first := prompts[0]
	if !strings.Contains(first, "Phase: planning") {
		t.Errorf("first prompt missing phase header: %q", first)
	}
	if !strings.Contains(first, "Agent: Primo (Project Manager)") {
		t.Errorf("first prompt missing agent line: %q", first)
	}
	if !strings.Contains(first, "No additional context provided.") {
		t.Errorf("first prompt should state the empty context: %q", first)
	}

	second := prompts[1]
	if !strings.Contains(second, "Phase: review") {
		t.Errorf("second prompt missing phase header: %q", second)
	}
	if !strings.Contains(second, "[planning output]:\nPLANNING-OUTPUT-MARKER") {
		t.Errorf("second prompt missing carried context: %q", second)
	}
}

func TestRunWorkflow_InitialContext(t *testing.T) {
	gemini := testutil.NewFakeExecutor(core.ProviderGemini)
	e := newTestEngine(t, nil, nil, map[core.ProviderID]core.Executor{core.ProviderGemini: gemini})

	if _, err := e.RunWorkflow(context.Background(), "p1", "documentation", "Target stack: Go"); err != nil {
		t.Fatalf("RunWorkflow() error = %v", err)
	}
	if got := gemini.LastPrompt(); !strings.Contains(got, "Target stack: Go") {
		t.Errorf("prompt = %q, want initial context included", got)
	}
}

func TestRunWorkflow_ContextTruncated(t *testing.T) {
	cfg := &config.Config{}
	cfg.Workflow.ContextLimit = 10

	claude := testutil.NewFakeExecutor(core.ProviderClaude).WithResponse("PLANNING-OUTPUT-MARKER")
	e := newTestEngine(t, cfg, nil, map[core.ProviderID]core.Executor{core.ProviderClaude: claude})

	if _, err := e.RunWorkflow(context.Background(), "p1", "planning", ""); err != nil {
		t.Fatalf("RunWorkflow() error = %v", err)
	}

	prompts := claude.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("invocations = %d, want 2", len(prompts))
	}
	if !strings.Contains(prompts[1], "[planning output]:\nPLANNING-O") {
		t.Errorf("second prompt = %q, want context capped at the limit", prompts[1])
	}
	if strings.Contains(prompts[1], "OUTPUT-MARKER") {
		t.Errorf("second prompt = %q, want tail truncated", prompts[1])
	}
}

func TestRunWorkflow_TracksRunState(t *testing.T) {
	const projectID = "wf-project"

	var e *Engine
	var phases []string
	var progresses []int

	record := func(ctx context.Context, prompt, system string) (string, error) {
		if run, ok := e.ActiveRun(projectID); ok {
			phases = append(phases, run.CurrentPhase)
			progresses = append(progresses, run.Progress)
		}
		return "ok", nil
	}
	executors := map[core.ProviderID]core.Executor{
		core.ProviderClaude: testutil.NewFakeExecutor(core.ProviderClaude).WithInvokeFunc(record),
		core.ProviderGemini: testutil.NewFakeExecutor(core.ProviderGemini).WithInvokeFunc(record),
		core.ProviderOpenAI: testutil.NewFakeExecutor(core.ProviderOpenAI).WithInvokeFunc(record),
	}
	e = newTestEngine(t, nil, nil, executors)

	res, err := e.RunWorkflow(context.Background(), projectID, "full", "")
	if err != nil {
		t.Fatalf("RunWorkflow() error = %v", err)
	}

	if !reflect.DeepEqual(phases, fullPhaseOrder) {
		t.Errorf("observed phases = %v, want template order", phases)
	}
	wantProgress := []int{0, 12, 25, 37, 50, 62, 75, 87}
	if !reflect.DeepEqual(progresses, wantProgress) {
		t.Errorf("observed progress = %v, want %v", progresses, wantProgress)
	}
	if res.Progress != 100 {
		t.Errorf("final progress = %d, want 100", res.Progress)
	}
	if _, ok := e.ActiveRun(projectID); ok {
		t.Error("finished run should be discarded")
	}
}
