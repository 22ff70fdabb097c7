package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// SendMessageRequest is the request body for agent-to-agent messaging.
type SendMessageRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message"`
}

// ExchangeResponse is the API representation of one message exchange.
type ExchangeResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// handleSendMessage relays a message from one agent to another and returns
// the receiver's reply.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.From == "" {
		s.respondError(w, http.StatusBadRequest, "from is required")
		return
	}
	if req.To == "" {
		s.respondError(w, http.StatusBadRequest, "to is required")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	exchange, err := s.engine.AgentMessage(r.Context(), req.ProjectID, req.From, req.To, req.Message)
	if err != nil {
		s.respondEngineError(w, err, "failed to send message")
		return
	}

	s.respondJSON(w, http.StatusOK, exchangeToResponse(exchange))
}

// exchangeToResponse converts an exchange to its API representation.
func exchangeToResponse(exchange *core.Exchange) ExchangeResponse {
	return ExchangeResponse{
		From:      exchange.From,
		To:        exchange.To,
		Message:   exchange.Message,
		Response:  exchange.Response,
		Status:    string(exchange.Status),
		Timestamp: exchange.Timestamp,
	}
}
