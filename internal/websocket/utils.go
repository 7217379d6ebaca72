package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait = 10 * time.Second
	// readWait bounds client silence; pages ping well within it.
	readWait = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}

// Stream is the timer display of one connected page. gorilla allows a
// single concurrent writer, so every write goes through mu.
type Stream struct {
	conn *websocket.Conn
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewStream wraps conn.
func NewStream(conn *websocket.Conn, log zerolog.Logger) *Stream {
	return &Stream{conn: conn, log: log}
}

// Send writes one typed message.
func (s *Stream) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteTyped(s.conn, v)
}

func (s *Stream) send(v interface{}) {
	if err := s.Send(v); err != nil {
		s.log.Debug().Err(err).Msg("Stream write failed")
	}
}

// SetLabel sends a label event.
func (s *Stream) SetLabel(text string) {
	s.send(LabelResponse{Event: EventLabel, Label: text})
}

// SetValue sends a time event.
func (s *Stream) SetValue(text string) {
	s.send(TimeResponse{Event: EventTime, Value: text})
}

// Navigate sends the navigate event.
func (s *Stream) Navigate(url string) {
	s.send(NavigateResponse{Event: EventNavigate, URL: url})
}

// Pong answers a ping.
func (s *Stream) Pong() {
	s.send(PongResponse{Event: EventPong})
}

// Error sends an error event.
func (s *Stream) Error(msg string) {
	s.send(ErrorResponse{Event: EventError, Error: msg})
}

// Close sends a normal close frame carrying reason, then closes the connection.
func (s *Stream) Close(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return s.conn.Close()
}
