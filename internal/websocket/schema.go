package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is any client message. Position and Answer are only read for
// autosave; Language and UserName only for submit.
type Request struct {
	Action   Action `json:"action"`
	Position *int   `json:"position,omitempty"`
	Answer   *int   `json:"answer,omitempty"`
	Language string `json:"language,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

type SavedResponse struct {
	Event    Event `json:"event"`
	Position int   `json:"position"`
}

// GradedResponse carries the result summary of a submission.
type GradedResponse struct {
	Event  Event       `json:"event"`
	Result interface{} `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
