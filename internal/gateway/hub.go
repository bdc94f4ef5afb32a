package gateway

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polyphony-chat/symfonia-sub000/internal/config"
	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

// TokenVerifier resolves an authentication token to a user identity. The gateway never inspects tokens itself; it
// consumes this primitive and treats the token string as the session key for the life of the connection.
type TokenVerifier func(token string) (uuid.UUID, error)

// Hub drives the connection lifecycle for every accepted WebSocket: handshake, session spawn, and the pub/sub bridge
// that feeds REST-originated events into the fan-out dispatcher.
type Hub struct {
	reg    *Registry
	verify TokenVerifier
	cfg    *config.Config
	log    zerolog.Logger
}

// NewHub creates a gateway hub on top of the given registry and token verifier.
func NewHub(reg *Registry, verify TokenVerifier, cfg *config.Config, logger zerolog.Logger) *Hub {
	return &Hub{
		reg:    reg,
		verify: verify,
		cfg:    cfg,
		log:    logger.With().Str("component", "gateway").Logger(),
	}
}

// Registry returns the connected-users singleton the hub serves.
func (h *Hub) Registry() *Registry { return h.reg }

// readyData is the payload of the READY dispatch completing an IDENTIFY handshake.
type readyData struct {
	UserID            string `json:"user_id"`
	SessionID         string `json:"session_id"`
	HeartbeatInterval int    `json:"heartbeat_interval"`
}

// ServeWebSocket owns an upgraded connection from the HELLO frame onward. It returns when the handshake fails or,
// after a successful handshake, as soon as the steady-state tasks are spawned.
func (h *Hub) ServeWebSocket(ws *websocket.Conn) {
	conn := NewConn(ws, h.cfg.GatewayHeartbeatInterval+LatencyBuffer, h.log)

	hello, err := events.NewHelloFrame(int(h.cfg.GatewayHeartbeatInterval.Milliseconds()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build Hello frame")
		conn.Kill()
		return
	}
	if !conn.Send(hello) {
		return
	}

	h.handshake(conn)
}

// handshake waits for the client's opening frame and branches on it. A heartbeat arriving first spawns the heartbeat
// controller eagerly but keeps waiting; IDENTIFY and RESUME complete the handshake; anything else, or silence past
// the deadline, closes the socket. The handshake either hands a registered session to the steady-state tasks or
// leaves no state behind.
func (h *Hub) handshake(conn *Conn) {
	timeout := time.NewTimer(h.cfg.GatewayHandshakeTimeout)
	defer timeout.Stop()

	seq := &atomic.Int64{}
	var hb *Heartbeater

	for {
		select {
		case <-timeout.C:
			h.log.Debug().Msg("Handshake timed out")
			conn.CloseWithCode(CloseNotAuthenticated, "handshake timeout")
			return

		case <-conn.Killed():
			return

		case raw, ok := <-conn.Inbound():
			if !ok {
				conn.Kill()
				return
			}
			frame, err := events.Decode(raw)
			if err != nil {
				code := CloseDecodeError
				if errors.Is(err, events.ErrUnknownOpcode) {
					code = CloseUnknownOpcode
				}
				conn.CloseWithCode(code, "decode error")
				return
			}

			switch events.ClassifyOpcode(frame.Op) {
			case events.KindHeartbeat:
				if hb == nil {
					hb = NewHeartbeater(conn, seq, h.cfg.GatewayHeartbeatInterval, h.log)
					go hb.Run()
				}
				hb.Beat(clientSequence(frame.Data))

			case events.KindIdentify:
				h.finishIdentify(conn, frame.Data, hb, seq)
				return

			case events.KindResume:
				if h.finishResume(conn, frame.Data, hb, seq) {
					return
				}
				// Invalid session: the client may still IDENTIFY before the deadline.

			default:
				conn.CloseWithCode(CloseDecodeError, "decode error")
				return
			}
		}
	}
}

// finishIdentify verifies the token, registers the session, and sends READY.
func (h *Hub) finishIdentify(conn *Conn, data json.RawMessage, hb *Heartbeater, seq *atomic.Int64) {
	var id events.IdentifyData
	if err := json.Unmarshal(data, &id); err != nil || id.Token == "" {
		conn.CloseWithCode(CloseAuthFailed, "authentication failed")
		return
	}

	userID, err := h.verify(id.Token)
	if err != nil {
		h.log.Debug().Err(err).Msg("Identify token verification failed")
		conn.CloseWithCode(CloseAuthFailed, "authentication failed")
		return
	}

	s := h.attachSession(conn, id.Token, userID, hb, seq)
	ready, err := json.Marshal(readyData{
		UserID:            userID.String(),
		SessionID:         id.Token,
		HeartbeatInterval: int(h.cfg.GatewayHeartbeatInterval.Milliseconds()),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal READY payload")
		conn.CloseWithCode(CloseUnknownError, "internal server error")
		return
	}
	h.sendDispatch(conn, seq, events.Ready, ready)

	h.log.Info().Stringer("user_id", userID).Int64("seq", s.LastSequence()).Msg("Client identified")
}

// finishResume restores a session from its resumable tombstone. It returns false when the tombstone is missing or
// does not belong to the presented token, in which case the client is told to re-identify and the handshake
// continues.
func (h *Hub) finishResume(conn *Conn, data json.RawMessage, hb *Heartbeater, seq *atomic.Int64) bool {
	var rd events.ResumeData
	if err := json.Unmarshal(data, &rd); err != nil || rd.Token == "" {
		conn.CloseWithCode(CloseAuthFailed, "authentication failed")
		return true
	}

	userID, err := h.verify(rd.Token)
	if err != nil {
		h.log.Debug().Err(err).Msg("Resume token verification failed")
		conn.CloseWithCode(CloseAuthFailed, "authentication failed")
		return true
	}

	entry, ok := h.reg.TakeResumable(rd.Token)
	if !ok || entry.UserID != userID {
		h.log.Debug().Stringer("user_id", userID).Msg("No resumable session, instructing client to identify")
		if frame, fErr := events.NewInvalidSessionFrame(false); fErr == nil {
			conn.Send(frame)
		}
		return false
	}

	seq.Store(entry.DisconnectedAtSequence)
	h.attachSession(conn, rd.Token, userID, hb, seq)
	h.sendDispatch(conn, seq, events.Resumed, json.RawMessage(`{}`))

	h.log.Info().Stringer("user_id", userID).Int64("seq", entry.DisconnectedAtSequence).Msg("Client resumed")
	return true
}

// attachSession performs the registration choreography shared by IDENTIFY and RESUME: ensure a heartbeat controller
// is running, look up or create the user, register the session, hand the token to the controller, and spawn the
// steady-state loops.
func (h *Hub) attachSession(conn *Conn, token string, userID uuid.UUID, hb *Heartbeater, seq *atomic.Int64) *Session {
	if hb == nil {
		hb = NewHeartbeater(conn, seq, h.cfg.GatewayHeartbeatInterval, h.log)
		go hb.Run()
	}

	u := h.reg.GetOrCreateUser(userID)
	s := newSession(token, userID, conn, h.reg, hb, seq, h.log)
	h.reg.RegisterSession(u, s)
	hb.SetToken(token)
	s.start(u)
	return s
}

// sendDispatch stamps and writes one dispatch frame directly on the connection, outside the inbox path.
func (h *Hub) sendDispatch(conn *Conn, seq *atomic.Int64, name events.DispatchName, data json.RawMessage) {
	raw, err := events.Encode(events.NewDispatchFrame(seq.Add(1), name, data))
	if err != nil {
		h.log.Error().Err(err).Str("event", name.String()).Msg("Failed to encode dispatch")
		return
	}
	conn.Send(raw)
}

// Shutdown tells every connected client to reconnect and closes all sessions.
func (h *Hub) Shutdown() {
	reconnect, err := events.NewReconnectFrame()
	if err != nil {
		reconnect = nil
	}
	h.reg.Shutdown(reconnect)
}
