package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/testutil"
)

func TestAgentMessage_Exchange(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	project, err := store.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	claude := testutil.NewFakeExecutor(core.ProviderClaude).WithResponse("Navbar done")
	e := newTestEngine(t, nil, store, map[core.ProviderID]core.Executor{core.ProviderClaude: claude})

	ex, err := e.AgentMessage(ctx, project.ID, "Primo", "Fronti", "Please build the navbar")
	if err != nil {
		t.Fatalf("AgentMessage() error = %v", err)
	}

	if ex.From != "Primo" || ex.To != "Fronti" {
		t.Errorf("exchange endpoints = %q -> %q, want Primo -> Fronti", ex.From, ex.To)
	}
	if ex.Message != "Please build the navbar" {
		t.Errorf("exchange message = %q", ex.Message)
	}
	if ex.Response != "Navbar done" {
		t.Errorf("exchange response = %q, want receiver output", ex.Response)
	}
	if ex.Status != core.StatusCompleted {
		t.Errorf("exchange status = %q, want completed", ex.Status)
	}
	if ex.Timestamp.IsZero() {
		t.Error("exchange timestamp should be set")
	}

	prompt := claude.LastPrompt()
	if !strings.Contains(prompt, "You are Fronti, receiving a message from Primo.") {
		t.Errorf("prompt missing framing: %q", prompt)
	}
	if !strings.Contains(prompt, "Message from Primo: Please build the navbar") {
		t.Errorf("prompt missing message body: %q", prompt)
	}
	if !strings.Contains(prompt, "your role as Frontend Developer") {
		t.Errorf("prompt missing receiver role: %q", prompt)
	}

	entries, err := store.Activities(ctx, project.ID, 10)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	// The receiver's task entry plus the communication entry.
	if len(entries) != 2 {
		t.Fatalf("activities = %d, want 2", len(entries))
	}
	comm := entries[0]
	if comm.Action != core.ActionAgentCommunication {
		t.Errorf("newest activity = %q, want agent_communication", comm.Action)
	}
	if comm.Agent != "Primo" {
		t.Errorf("communication agent = %q, want sender alias", comm.Agent)
	}
	if comm.Description != "Message to Fronti" {
		t.Errorf("communication description = %q", comm.Description)
	}
	if comm.Metadata["from"] != "Primo" || comm.Metadata["to"] != "Fronti" {
		t.Errorf("communication metadata = %v", comm.Metadata)
	}
	if comm.Metadata["message_preview"] != "Please build the navbar" {
		t.Errorf("message_preview = %v, want full short message", comm.Metadata["message_preview"])
	}
}

func TestAgentMessage_PreviewTruncated(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	project, err := store.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	e := newTestEngine(t, nil, store, testExecutors("ok"))

	long := strings.Repeat("x", 150)
	if _, err := e.AgentMessage(ctx, project.ID, "Primo", "Baky", long); err != nil {
		t.Fatalf("AgentMessage() error = %v", err)
	}

	entries, err := store.Activities(ctx, project.ID, 10)
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	preview, ok := entries[0].Metadata["message_preview"].(string)
	if !ok {
		t.Fatalf("message_preview missing from %v", entries[0].Metadata)
	}
	if len(preview) != 100 {
		t.Errorf("preview length = %d, want 100", len(preview))
	}
}

func TestAgentMessage_UnknownAgent(t *testing.T) {
	e := newTestEngine(t, nil, nil, testExecutors("ok"))
	ctx := context.Background()

	// Resolution failures surface directly, unlike task execution which
	// wraps them.
	_, err := e.AgentMessage(ctx, "p1", "ghost", "Fronti", "hi")
	if !errors.Is(err, core.ErrNotFound("", "")) {
		t.Errorf("unknown sender error = %v, want not-found", err)
	}
	if !core.IsCategory(err, core.ErrCatNotFound) {
		t.Errorf("unknown sender category = %v, want not_found", core.GetCategory(err))
	}

	_, err = e.AgentMessage(ctx, "p1", "Primo", "ghost", "hi")
	if !errors.Is(err, core.ErrNotFound("", "")) {
		t.Errorf("unknown receiver error = %v, want not-found", err)
	}
}

func TestAgentMessage_ReceiverFailure(t *testing.T) {
	claude := testutil.NewFakeExecutor(core.ProviderClaude).WithError(errors.New("no response"))
	e := newTestEngine(t, nil, nil, map[core.ProviderID]core.Executor{core.ProviderClaude: claude})

	ex, err := e.AgentMessage(context.Background(), "p1", "Guru", "Primo", "status?")
	if err != nil {
		t.Fatalf("AgentMessage() error = %v, receiver failure is carried in the exchange", err)
	}
	if ex.Status != core.StatusFailed {
		t.Errorf("exchange status = %q, want failed", ex.Status)
	}
	if ex.Response != "" {
		t.Errorf("exchange response = %q, want empty on failure", ex.Response)
	}
}

func TestAgentMessage_WithoutStore(t *testing.T) {
	e := newTestEngine(t, nil, nil, testExecutors("ok"))

	ex, err := e.AgentMessage(context.Background(), "p1", "Qai", "Secu", "scan results?")
	if err != nil {
		t.Fatalf("AgentMessage() error = %v", err)
	}
	if ex.Status != core.StatusCompleted {
		t.Errorf("exchange status = %q, want completed", ex.Status)
	}
}
