// Package cli provides execution adapters that delegate prompts to locally
// installed provider CLI tools.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// DefaultTimeout bounds a provider invocation when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// AdapterConfig holds per-provider CLI settings.
type AdapterConfig struct {
	Name    string        // provider identifier, used for logging and env marking
	Path    string        // executable name or absolute path
	Args    []string      // extra arguments appended to every invocation
	Timeout time.Duration // per-invocation timeout, DefaultTimeout when zero
	WorkDir string        // optional working directory
}

// BaseAdapter provides common CLI execution functionality.
type BaseAdapter struct {
	config AdapterConfig
	log    *logging.Logger
}

// NewBaseAdapter creates a new base adapter.
func NewBaseAdapter(cfg AdapterConfig, log *logging.Logger) *BaseAdapter {
	if log == nil {
		log = logging.NewNop()
	}
	return &BaseAdapter{config: cfg, log: log}
}

// Config returns the adapter configuration.
func (b *BaseAdapter) Config() AdapterConfig {
	return b.config
}

// CommandResult holds the result of a CLI execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExecuteCommand runs the configured CLI with the given arguments.
func (b *BaseAdapter) ExecuteCommand(ctx context.Context, args []string, stdin string) (*CommandResult, error) {
	timeout := b.config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmdPath := b.config.Path
	if cmdPath == "" {
		return nil, core.ErrValidation("NO_PATH", "adapter path not configured")
	}

	// Handle multi-word commands (e.g. "gh copilot")
	cmdParts := strings.Fields(cmdPath)
	if len(cmdParts) > 1 {
		cmdPath = cmdParts[0]
		args = append(cmdParts[1:], args...)
	}

	// #nosec G204 -- command path and args come from validated config
	cmd := exec.CommandContext(ctx, cmdPath, args...)
	if b.config.WorkDir != "" {
		cmd.Dir = b.config.WorkDir
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "GRIPRO_MANAGED=true", fmt.Sprintf("GRIPRO_PROVIDER=%s", b.config.Name))

	b.log.Info("cli: executing command",
		"provider", b.config.Name,
		"path", cmdPath,
		"args", args,
		"stdin_length", len(stdin),
		"timeout", timeout,
	)

	startTime := time.Now()
	err := cmd.Run()
	duration := time.Since(startTime)

	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if ctx.Err() == context.DeadlineExceeded {
		b.log.Error("cli: command timeout",
			"provider", b.config.Name,
			"duration", duration,
			"timeout", timeout,
			"stderr_preview", truncateForLog(result.Stderr, 1000),
		)
		return result, core.ErrTimeout(fmt.Sprintf("command timed out after %v", timeout))
	}
	if ctx.Err() == context.Canceled {
		b.log.Info("cli: command cancelled", "provider", b.config.Name, "duration", duration)
		return result, core.ErrState("CANCELLED", "invocation cancelled by caller")
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			b.log.Error("cli: command failed",
				"provider", b.config.Name,
				"exit_code", result.ExitCode,
				"duration", duration,
				"stderr", truncateForLog(result.Stderr, 2000),
			)
			return result, b.classifyError(result)
		}
		b.log.Error("cli: command execution error",
			"provider", b.config.Name,
			"error", err,
			"duration", duration,
		)
		return result, fmt.Errorf("executing command: %w", err)
	}

	b.log.Info("cli: command completed",
		"provider", b.config.Name,
		"duration", duration,
		"stdout_length", len(result.Stdout),
	)

	result.ExitCode = 0
	return result, nil
}

// CheckAvailability verifies the CLI is installed and on PATH.
func (b *BaseAdapter) CheckAvailability(_ context.Context) error {
	cmdPath := b.config.Path
	if cmdPath == "" {
		return core.ErrValidation("NO_PATH", "adapter path not configured")
	}

	cmdParts := strings.Fields(cmdPath)
	cmdPath = cmdParts[0]

	if _, err := exec.LookPath(cmdPath); err != nil {
		return core.ErrNotFound("CLI", cmdPath)
	}
	return nil
}

// GetVersion retrieves the CLI version.
func (b *BaseAdapter) GetVersion(ctx context.Context, versionArg string) (string, error) {
	result, err := b.ExecuteCommand(ctx, []string{versionArg}, "")
	if err != nil {
		return "", err
	}

	output := result.Stdout + result.Stderr
	versionPattern := `v?\d+\.\d+(\.\d+)?(-[a-zA-Z0-9]+)?`
	re := regexp.MustCompile(versionPattern)
	if match := re.FindString(output); match != "" {
		return match, nil
	}
	return strings.TrimSpace(output), nil
}

// classifyError converts command failures to domain errors.
func (b *BaseAdapter) classifyError(result *CommandResult) error {
	errorMsg := strings.TrimSpace(result.Stderr)
	if errorMsg == "" {
		// Some CLIs report errors as JSON on stdout.
		errorMsg = extractErrorFromOutput(result.Stdout)
	}
	if errorMsg == "" {
		errorMsg = "(no error message captured)"
	}

	errorMsgLower := strings.ToLower(errorMsg)

	if containsAny(errorMsgLower, []string{"rate limit", "too many requests", "429", "quota"}) {
		return core.ErrRateLimit(errorMsg)
	}
	if containsAny(errorMsgLower, []string{"unauthorized", "authentication", "api key", "not logged in"}) {
		return core.ErrAuth(errorMsg)
	}
	if containsAny(errorMsgLower, []string{"connection", "network", "timeout", "unreachable"}) {
		return core.ErrExecution("NETWORK", errorMsg)
	}

	return core.ErrExecution(core.CodeCommandFailed,
		fmt.Sprintf("command failed with exit code %d: %s", result.ExitCode, errorMsg),
	)
}

// extractErrorFromOutput tries to extract error messages from stdout.
func extractErrorFromOutput(stdout string) string {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- { // errors are usually near the end
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}

		if errMsg, ok := obj["error"].(string); ok && errMsg != "" {
			return errMsg
		}
		if errObj, ok := obj["error"].(map[string]interface{}); ok {
			if msg, ok := errObj["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.HasPrefix(line, "{") {
			if len(line) > 200 {
				return line[:200] + "..."
			}
			return line
		}
	}

	return ""
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "... [truncated]"
	}
	return s
}
