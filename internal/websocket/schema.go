package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// ActionVisible reports the page became visible again.
	ActionVisible Action = "visible"
	ActionPing    Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventLabel    Event = "label"
	EventTime     Event = "time"
	EventNavigate Event = "navigate"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// LabelResponse carries the caption shown next to the countdown.
type LabelResponse struct {
	Event Event  `json:"event"`
	Label string `json:"label"`
}

// TimeResponse carries the formatted remaining time, M:SS or H:MM:SS.
type TimeResponse struct {
	Event Event  `json:"event"`
	Value string `json:"value"`
}

// NavigateResponse tells the page to perform a full redirect to URL.
// At most one is sent per stream.
type NavigateResponse struct {
	Event Event  `json:"event"`
	URL   string `json:"url"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
