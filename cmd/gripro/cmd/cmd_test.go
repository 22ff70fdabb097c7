package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
)

func findCommand(t *testing.T, use string) *cobra.Command {
	t.Helper()
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == use {
			return cmd
		}
	}
	return nil
}

func TestRootCmd_Structure(t *testing.T) {
	if rootCmd.Use != "gripro" {
		t.Errorf("expected 'gripro', got '%s'", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected non-empty short description")
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be set")
	}
}

func TestCommands_Registered(t *testing.T) {
	uses := []string{
		"version",
		"init",
		"doctor",
		"serve",
		"task <agent> <description>",
		"run <template>",
		"send <from> <to> <message>",
		"agents",
		"providers",
		"routes",
		"project",
	}
	for _, use := range uses {
		if findCommand(t, use) == nil {
			t.Errorf("command %q not registered", use)
		}
	}
}

func TestAgentsCmd_Subcommands(t *testing.T) {
	agents := findCommand(t, "agents")
	if agents == nil {
		t.Fatal("agents command not registered")
	}

	subs := map[string]bool{}
	for _, cmd := range agents.Commands() {
		subs[cmd.Use] = true
	}
	if !subs["list"] || !subs["validate"] {
		t.Errorf("expected list and validate subcommands, got %v", subs)
	}
}

func TestProvidersCmd_Subcommands(t *testing.T) {
	providers := findCommand(t, "providers")
	if providers == nil {
		t.Fatal("providers command not registered")
	}

	subs := map[string]bool{}
	for _, cmd := range providers.Commands() {
		subs[cmd.Use] = true
	}
	if !subs["list"] || !subs["probe"] {
		t.Errorf("expected list and probe subcommands, got %v", subs)
	}
}

func TestRoutesCmd_Subcommands(t *testing.T) {
	routes := findCommand(t, "routes")
	if routes == nil {
		t.Fatal("routes command not registered")
	}

	subs := map[string]bool{}
	for _, cmd := range routes.Commands() {
		subs[cmd.Use] = true
	}
	if !subs["list"] || !subs["set <category> <provider>"] {
		t.Errorf("expected list and set subcommands, got %v", subs)
	}
}

func TestProjectCmd_Subcommands(t *testing.T) {
	project := findCommand(t, "project")
	if project == nil {
		t.Fatal("project command not registered")
	}

	subs := map[string]bool{}
	for _, cmd := range project.Commands() {
		subs[cmd.Use] = true
	}
	if !subs["create <name>"] || !subs["status <project-id>"] {
		t.Errorf("expected create and status subcommands, got %v", subs)
	}
}

func TestTaskCmd_Flags(t *testing.T) {
	task := findCommand(t, "task <agent> <description>")
	if task == nil {
		t.Fatal("task command not found")
	}

	flags := []string{"project", "system-prompt", "json"}
	for _, flagName := range flags {
		if task.Flags().Lookup(flagName) == nil {
			t.Errorf("task command missing flag: %s", flagName)
		}
	}
}

func TestRunCmd_Flags(t *testing.T) {
	run := findCommand(t, "run <template>")
	if run == nil {
		t.Fatal("run command not found")
	}

	flags := []string{"project", "context", "json"}
	for _, flagName := range flags {
		if run.Flags().Lookup(flagName) == nil {
			t.Errorf("run command missing flag: %s", flagName)
		}
	}
}

func TestServeCmd_Flags(t *testing.T) {
	serve := findCommand(t, "serve")
	if serve == nil {
		t.Fatal("serve command not found")
	}
	if serve.Flags().Lookup("addr") == nil {
		t.Error("serve command missing flag: addr")
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flags := []string{"config", "log-level", "log-format", "state-dir"}
	for _, flagName := range flags {
		if rootCmd.PersistentFlags().Lookup(flagName) == nil {
			t.Errorf("root command missing persistent flag: %s", flagName)
		}
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")
	if appVersion != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", appVersion)
	}
	if appCommit != "abc123" {
		t.Errorf("expected commit 'abc123', got '%s'", appCommit)
	}
	if appDate != "2024-01-01" {
		t.Errorf("expected date '2024-01-01', got '%s'", appDate)
	}
	if GetVersion() != "1.0.0" {
		t.Errorf("GetVersion() = %s, want 1.0.0", GetVersion())
	}
}

func TestCheckCommand(t *testing.T) {
	if !checkCommand("ls", []string{}) {
		t.Error("expected 'ls' to be available")
	}
}

func TestCheckCommand_NotFound(t *testing.T) {
	if checkCommand("nonexistent_command_xyz", []string{}) {
		t.Error("expected 'nonexistent_command_xyz' to not be available")
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 50); got != "short" {
		t.Errorf("expected 'short', got '%s'", got)
	}

	long := strings.Repeat("a", 60)
	got := truncateString(long, 50)
	if len(got) != 50 {
		t.Errorf("expected length 50, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected '...' suffix, got '%s'", got)
	}

	if got := truncateString("line1\nline2", 50); got != "line1 line2" {
		t.Errorf("expected newlines replaced, got '%s'", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("expected '-' for zero time, got '%s'", got)
	}

	ts := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	if got := formatTime(ts); got != "2026-03-14 15:09" {
		t.Errorf("expected '2026-03-14 15:09', got '%s'", got)
	}
}

func TestConfigIssues_ValidConfig(t *testing.T) {
	cfg := &config.Config{
		Log: config.LogConfig{Level: "info", Format: "auto"},
		Providers: config.ProvidersConfig{
			Claude: config.ProviderConfig{Enabled: true, Path: "claude", Timeout: "2m"},
		},
		State:    config.StateConfig{Backend: "none"},
		Workflow: config.WorkflowConfig{ContextLimit: 500, MessagePreview: 100},
		Server:   config.ServerConfig{Addr: "127.0.0.1:8400"},
	}

	if issues := configIssues(cfg); len(issues) != 0 {
		t.Errorf("expected no issues for valid config, got %v", issues)
	}
}

func TestConfigIssues_InvalidConfig(t *testing.T) {
	cfg := &config.Config{
		Log:      config.LogConfig{Level: "loud", Format: "auto"},
		State:    config.StateConfig{Backend: "none"},
		Workflow: config.WorkflowConfig{ContextLimit: 500, MessagePreview: 100},
		Server:   config.ServerConfig{Addr: "127.0.0.1:8400"},
	}

	issues := configIssues(cfg)
	if len(issues) == 0 {
		t.Fatal("expected issues for invalid config")
	}
	// One for the bad level, one for no enabled providers.
	if len(issues) != 2 {
		t.Errorf("expected 2 issues, got %d: %v", len(issues), issues)
	}
}
