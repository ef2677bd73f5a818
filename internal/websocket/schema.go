package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave   Action = "autosave"
	ActionVisibility Action = "visibility"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save a single answer draft.
type AutosaveRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
	Answer string `json:"ans"`
}

// VisibilityRequest is sent by the client when the exam tab visibility changes.
type VisibilityRequest struct {
	Action Action `json:"action"`
	Hidden bool   `json:"hidden"`
}

// SubmitRequest is sent by the client to finish the exam.
type SubmitRequest struct {
	Action  Action   `json:"action"`
	Answers []string `json:"answers"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSuccess    Event = "success"
	EventTerminated Event = "terminated"
	EventPong       Event = "pong"
	EventChanged    Event = "changed"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TerminatedResponse informs the client that the session reached a
// terminal state, with the localized message to display.
type TerminatedResponse struct {
	Event   Event  `json:"event"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ChangedResponse notifies a subscriber that a shared document changed.
type ChangedResponse struct {
	Event    Event  `json:"event"`
	Document string `json:"document"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
