package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionDraft    Action = "draft"
	ActionSave     Action = "save"
	ActionNavigate Action = "navigate"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// DraftRequest carries an in-progress edit for a question.
type DraftRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
	Text   string `json:"text"`
}

// SaveRequest persists the current draft of a question.
type SaveRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
}

// NavigateRequest moves the active-question cursor.
type NavigateRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse pushes the full rendering state after every tick and
// every acknowledged action.
type SnapshotResponse struct {
	Event    Event       `json:"event"`
	Snapshot interface{} `json:"snapshot"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
