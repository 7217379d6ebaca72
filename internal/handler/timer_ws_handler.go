package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/middleware"
	"github.com/stemsi/exstem-timer/internal/response"
	"github.com/stemsi/exstem-timer/internal/service"
	"github.com/stemsi/exstem-timer/internal/timer"
	ws "github.com/stemsi/exstem-timer/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// TimerWSHandler runs one countdown per connected question page.
type TimerWSHandler struct {
	testService  *service.TestService
	clock        clockwork.Clock
	tickInterval time.Duration
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewTimerWSHandler creates a new TimerWSHandler. A nil clock means the wall clock.
func NewTimerWSHandler(
	testService *service.TestService,
	clock clockwork.Clock,
	tickInterval time.Duration,
	log zerolog.Logger,
	allowedOrigins []string,
) *TimerWSHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimerWSHandler{
		testService:  testService,
		clock:        clock,
		tickInterval: tickInterval,
		log:          log.With().Str("component", "timer_ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// TimerStream godoc
// WS /ws/v1/tests/:id/questions/:n/timer?ticket=...
// Streams label and time events for one question page and sends a single
// navigate event when the page must move on.
func (h *TimerWSHandler) TimerStream(c *gin.Context) {
	ticket := middleware.GetTicket(c)
	if ticket == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTicketRequired)
		return
	}
	testID, n := ticket.TestID, ticket.Question

	// Resolve the config before upgrading so problems surface as HTTP errors.
	cfg, err := h.testService.TimerConfig(c.Request.Context(), testID, n)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	wsLog := h.log.With().
		Str("test_id", testID.String()).
		Int("question", n).
		Logger()
	stream := ws.NewStream(conn, wsLog)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nav := timer.NavigatorFunc(func(url string) {
		stream.Navigate(url)
		if url != cfg.FinishURL {
			return
		}
		if err := h.testService.PublishExpiry(ctx, testID, n); err != nil {
			wsLog.Error().Err(err).Msg("Failed to queue expiry")
		}
	})

	ctrl := timer.New(*cfg, stream, nav,
		timer.WithClock(h.clock),
		timer.WithTickInterval(h.tickInterval),
		timer.WithLogger(wsLog),
	)

	wsLog.Info().Str("timer_mode", string(cfg.TimerMode)).Msg("Timer stream connected")
	go h.readLoop(conn, stream, ctrl, wsLog, cancel)

	outcome := ctrl.Run(ctx)
	if outcome != timer.OutcomeNavigated {
		// A frozen or idle page keeps its display; hold until the client leaves.
		<-ctx.Done()
	}
	wsLog.Info().Str("outcome", string(outcome)).Msg("Timer stream finished")
	_ = stream.Close(string(outcome))
}

// readLoop consumes client actions until the connection closes.
func (h *TimerWSHandler) readLoop(conn *websocket.Conn, stream *ws.Stream, ctrl *timer.Controller, wsLog zerolog.Logger, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionVisible:
			ctrl.Visible()
		case ws.ActionPing:
			stream.Pong()
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			stream.Error("unknown action: " + string(msg.Action))
		}
	}
}
