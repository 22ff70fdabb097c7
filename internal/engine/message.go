package engine

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// AgentMessage forwards a message from one agent to another by executing
// it as a task for the receiver. Both references resolve by name or
// alias; an unknown agent fails with the directory's not-found error.
// The exchange is logged as an agent_communication activity with a
// bounded message preview.
func (e *Engine) AgentMessage(ctx context.Context, projectID, fromRef, toRef, message string) (*core.Exchange, error) {
	dir, _, store, err := e.components()
	if err != nil {
		return nil, err
	}

	log := e.log.WithProject(projectID)
	log.Info("agent communication", "from", fromRef, "to", toRef)

	sender, err := dir.Resolve(fromRef)
	if err != nil {
		return nil, err
	}
	receiver, err := dir.Resolve(toRef)
	if err != nil {
		return nil, err
	}

	forward := fmt.Sprintf(
		"You are %s, receiving a message from %s.\nMessage from %s: %s\n\nPlease respond appropriately based on your role as %s.",
		receiver.Alias, sender.Alias, sender.Alias, message,
		receiver.ConfigString("role", string(receiver.Role)))

	outcome, err := e.ExecuteTask(ctx, projectID, receiver.Name, forward, "")
	if err != nil {
		return nil, err
	}

	if store != nil {
		entry := core.ActivityEntry{
			ProjectID:   projectID,
			Agent:       sender.Alias,
			Action:      core.ActionAgentCommunication,
			Description: fmt.Sprintf("Message to %s", receiver.Alias),
			Metadata: map[string]interface{}{
				"from":            sender.Alias,
				"to":              receiver.Alias,
				"message_preview": truncate(message, e.messagePreview()),
			},
		}
		if err := store.LogActivity(ctx, entry); err != nil {
			e.log.Warn("communication activity not persisted",
				"project_id", projectID, "error", err)
		}
	}

	return &core.Exchange{
		From:      sender.Alias,
		To:        receiver.Alias,
		Message:   message,
		Response:  outcome.Result,
		Status:    outcome.Status,
		Timestamp: outcome.Timestamp,
	}, nil
}
