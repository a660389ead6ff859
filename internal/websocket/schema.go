package websocket

import (
	"encoding/json"

	"github.com/stemsi/websurvey-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSubmitResponse Action = "submit_response"
	ActionUpdateTime     Action = "update_time"
	ActionComplete       Action = "complete"
	ActionPing           Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// SubmitResponseRequest upserts one answer; Data is model.SubmitResponseRequest.
type SubmitResponseRequest = model.SubmitResponseRequest

// UpdateTimeRequest records the per-tab durations in milliseconds.
type UpdateTimeRequest struct {
	Karakteristik *float64 `json:"karakteristik"`
	Survei        *float64 `json:"survei"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventTime      Event = "time_updated"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
)

// ResultResponse carries a session operation outcome back to the client.
type ResultResponse struct {
	Event   Event  `json:"event"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
