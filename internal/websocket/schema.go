package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionSubmit Action = "submit"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick      Event = "tick"
	EventTimeUp    Event = "time_up"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// TickResponse carries the server-computed remaining time. The client
// renders this verbatim and never runs its own countdown.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// TimeUpResponse announces that the attempt's clock has expired and the
// server is finalizing it.
type TimeUpResponse struct {
	Event Event `json:"event"`
}

// SubmittedResponse confirms finalization with the final total.
type SubmittedResponse struct {
	Event      Event `json:"event"`
	TotalScore int   `json:"total_score"`
	Attempted  int   `json:"attempted"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
