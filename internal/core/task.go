package core

import (
	"strings"
	"time"
)

// TaskCategory is the closed classification of work used for provider routing.
type TaskCategory string

const (
	TaskCodeGeneration TaskCategory = "code_generation"
	TaskQATesting      TaskCategory = "qa_testing"
	TaskContentWriting TaskCategory = "content_writing"
	TaskAnalysis       TaskCategory = "analysis"
	TaskSecurity       TaskCategory = "security"
	TaskDeployment     TaskCategory = "deployment"
	TaskGeneral        TaskCategory = "general"
)

// AllTaskCategories returns every task category.
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		TaskCodeGeneration,
		TaskQATesting,
		TaskContentWriting,
		TaskAnalysis,
		TaskSecurity,
		TaskDeployment,
		TaskGeneral,
	}
}

// Valid reports whether the category is one of the known values.
func (c TaskCategory) Valid() bool {
	switch c {
	case TaskCodeGeneration, TaskQATesting, TaskContentWriting,
		TaskAnalysis, TaskSecurity, TaskDeployment, TaskGeneral:
		return true
	}
	return false
}

// NormalizeTaskCategory coerces free-form input into a task category.
// It is total: lowercasing, trimming and mapping '-'/' ' to '_' first,
// then falling back to TaskGeneral for anything unrecognized. The second
// return value reports whether the input matched a known category.
func NormalizeTaskCategory(raw string) (TaskCategory, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	c := TaskCategory(s)
	if c.Valid() {
		return c, true
	}
	return TaskGeneral, false
}

// TaskStatus is the lifecycle state of one task execution.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	// StatusCancelled is reserved; no operation produces it today.
	StatusCancelled TaskStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// TaskOutcome is the immutable record of one task execution.
type TaskOutcome struct {
	Status    TaskStatus        `json:"status"`
	Result    string            `json:"result"`
	Agent     string            `json:"agent"` // alias of the executing agent
	Provider  ProviderID        `json:"provider"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Succeeded reports whether the task completed.
func (o *TaskOutcome) Succeeded() bool {
	return o.Status == StatusCompleted
}
