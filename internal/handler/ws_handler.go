package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/hub"
	ws "github.com/ujikode/ujikode-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams live session state over a WebSocket and accepts the
// high-frequency actions (draft, save, navigate) without HTTP round trips.
// Submission and judge runs stay on the HTTP surface where their results map
// onto status codes.
type WSHandler struct {
	hub          *hub.Hub
	log          zerolog.Logger
	upgrader     websocket.Upgrader
	pushInterval time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(h *hub.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:          h,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
		pushInterval: time.Second,
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Upgrades to WebSocket. Pushes a snapshot every second and after every
// acknowledged action, so the client clock and progress stay server-driven.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}
	if _, err := h.hub.Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Client connected")

	// Writes come from both the push ticker and action acknowledgements;
	// gorilla/websocket allows only one concurrent writer.
	var writeMu sync.Mutex
	pushSnapshot := func() {
		snap, err := h.hub.Snapshot(sessionID)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		ws.WriteSnapshot(conn, snap)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(h.pushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pushSnapshot()
			}
		}
	}()

	pushSnapshot()

	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			writeMu.Lock()
			ws.WriteError(conn, "malformed message")
			writeMu.Unlock()
			continue
		}

		if envelope.Action == ws.ActionPing {
			writeMu.Lock()
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			writeMu.Unlock()
			continue
		}

		if err := h.dispatch(sessionID, envelope.Action, raw); err != nil {
			writeMu.Lock()
			ws.WriteError(conn, err.Error())
			writeMu.Unlock()
			continue
		}
		pushSnapshot()
	}
}

// dispatch decodes one client action and applies it to the session.
func (h *WSHandler) dispatch(sessionID uuid.UUID, action ws.Action, raw []byte) error {
	switch action {
	case ws.ActionDraft:
		var req ws.DraftRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		questionID, err := uuid.Parse(req.QID)
		if err != nil {
			return errors.New("invalid q_id format")
		}
		return h.hub.SetDraft(sessionID, questionID, req.Text)

	case ws.ActionSave:
		var req ws.SaveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		questionID, err := uuid.Parse(req.QID)
		if err != nil {
			return errors.New("invalid q_id format")
		}
		return h.hub.Save(sessionID, questionID)

	case ws.ActionNavigate:
		var req ws.NavigateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		return h.hub.Navigate(sessionID, req.Index)

	default:
		return errors.New("unknown action: " + string(action))
	}
}
