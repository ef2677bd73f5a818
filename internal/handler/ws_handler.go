package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/session"
	"github.com/biletnik/biletnik-backend/internal/store"
	ws "github.com/biletnik/biletnik-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
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

// WSHandler handles the WebSocket session stream and the shared document
// change feed.
type WSHandler struct {
	manager  *session.Manager
	docs     *store.DocumentStore
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, docs *store.DocumentStore, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		docs:     docs,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// sessionConn pairs a WebSocket connection with a write mutex. The countdown
// watcher and the read loop both write, so writes must serialize.
type sessionConn struct {
	conn           *websocket.Conn
	mu             sync.Mutex
	terminatedSent bool
}

func (c *sessionConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.conn, v)
}

func (c *sessionConn) writeError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws.WriteError(c.conn, msg)
}

// writeTerminated pushes the terminal event at most once per connection.
// Both a message handler and the watcher can observe the terminal state;
// whichever gets here first sends, the other is a no-op.
func (c *sessionConn) writeTerminated(reason session.Reason, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminatedSent {
		return
	}
	c.terminatedSent = true
	ws.WriteTyped(c.conn, ws.TerminatedResponse{
		Event:   ws.EventTerminated,
		Reason:  string(reason),
		Message: message,
	})
}

// SessionStream godoc
// WS /ws/v1/student/sessions/:session_id/stream
// Carries answer autosaves and visibility signals upstream and pushes the
// terminal transition downstream the moment it happens, including when the
// countdown fires with no client message in flight.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sess, err := h.manager.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sc := &sessionConn{conn: conn}

	wsLog := h.log.With().Str("session_id", sess.ID).Logger()
	wsLog.Info().Msg("Student connected")

	// Watch for the terminal transition so a countdown expiry reaches the
	// client without waiting for its next message.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go h.watchTermination(sc, sess, watchDone)

	for {
		var envelope ws.RequestEnvelope
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			sc.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(c.Request.Context(), sc, wsLog, sess, raw)
		case ws.ActionVisibility:
			h.handleVisibility(c.Request.Context(), sc, wsLog, sess, raw)
		case ws.ActionSubmit:
			h.handleSubmit(c.Request.Context(), sc, wsLog, sess, raw)
		case ws.ActionPing:
			sc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			sc.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

// UpdatesStream godoc
// WS /ws/v1/updates
// Pushes a change event whenever a shared document is written, so admin and
// reviewer views refresh without polling.
func (h *WSHandler) UpdatesStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.docs.Subscribe(ctx, config.StoreKey.SubjectsDocument(), config.StoreKey.WorksDocument())
	defer sub.Close()

	// Drain reads so a client close tears the feed down.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			err := ws.WriteTyped(conn, ws.ChangedResponse{
				Event:    ws.EventChanged,
				Document: msg.Payload,
			})
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) watchTermination(sc *sessionConn, sess *session.Session, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := sess.Snapshot()
			if snap.State != session.StateTerminated {
				continue
			}
			sc.writeTerminated(snap.Reason, snap.Message)
			return
		}
	}
}

func (h *WSHandler) handleAutosave(ctx context.Context, sc *sessionConn, wsLog zerolog.Logger, sess *session.Session, raw []byte) {
	var msg ws.AutosaveRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		sc.writeError("malformed autosave")
		return
	}

	if err := sess.SaveAnswer(ctx, msg.Index, msg.Answer); err != nil {
		wsLog.Debug().Err(err).Int("index", msg.Index).Msg("Autosave rejected")
		sc.writeError(err.Error())
		return
	}

	sc.write(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleVisibility(ctx context.Context, sc *sessionConn, wsLog zerolog.Logger, sess *session.Session, raw []byte) {
	var msg ws.VisibilityRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		sc.writeError("malformed visibility signal")
		return
	}
	if !msg.Hidden {
		return
	}

	snap, err := sess.ReportHidden(ctx)
	if err != nil {
		wsLog.Error().Err(err).Msg("Violation append failed")
		sc.writeError("store write failed")
		return
	}
	// The signal is a no-op outside an active attempt.
	if snap.State != session.StateTerminated {
		return
	}

	wsLog.Info().Msg("Session terminated for visibility violation")
	sc.writeTerminated(snap.Reason, snap.Message)
}

func (h *WSHandler) handleSubmit(ctx context.Context, sc *sessionConn, wsLog zerolog.Logger, sess *session.Session, raw []byte) {
	var msg ws.SubmitRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		sc.writeError("malformed submit")
		return
	}

	snap, err := sess.SubmitAnswers(ctx, msg.Answers)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Submit rejected")
		sc.writeError(err.Error())
		return
	}

	wsLog.Info().Msg("Session submitted")
	sc.writeTerminated(snap.Reason, snap.Message)
}
