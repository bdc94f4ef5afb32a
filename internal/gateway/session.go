package gateway

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

// Session is a single connected device in its steady state. Two loops share the connection adapter: the inbound loop
// routes client frames by opcode, and the inbox loop forwards events from the owning user's inbox to the socket. The
// session holds its user's ID rather than the live User record; the registry is the single owner of user state.
type Session struct {
	Token  string
	UserID uuid.UUID

	conn  *Conn
	reg   *Registry
	hb    *Heartbeater
	inbox <-chan Dispatch

	// seq counts outbound dispatch events on this session. Shared with the heartbeat controller for drift detection
	// and read by the registry when the session dies to record where it left off.
	seq *atomic.Int64

	cleanupOnce sync.Once
	log         zerolog.Logger
}

func newSession(token string, userID uuid.UUID, conn *Conn, reg *Registry, hb *Heartbeater, seq *atomic.Int64, logger zerolog.Logger) *Session {
	return &Session{
		Token:  token,
		UserID: userID,
		conn:   conn,
		reg:    reg,
		hb:     hb,
		seq:    seq,
		log:    logger.With().Stringer("user_id", userID).Logger(),
	}
}

// start subscribes the session to its user's inbox and spawns both steady-state loops.
func (s *Session) start(u *User) {
	s.inbox = u.Inbox.Subscribe(s.Token)
	go s.runInbound()
	go s.runInbox()
}

// LastSequence returns the sequence number of the most recent dispatch written on this session.
func (s *Session) LastSequence() int64 { return s.seq.Load() }

// cleanup removes the session from the registry, leaving a resumable tombstone behind. Both loops and the heartbeat
// controller funnel through here; only the first caller acts.
func (s *Session) cleanup() {
	s.cleanupOnce.Do(func() {
		s.reg.DeregisterSession(s)
		s.log.Debug().Int64("last_seq", s.seq.Load()).Msg("Session deregistered")
	})
}

// runInbound reads decoded frames off the connection and routes them by opcode kind until the kill signal fires.
func (s *Session) runInbound() {
	defer s.cleanup()

	for {
		select {
		case <-s.conn.Killed():
			return
		case raw, ok := <-s.conn.Inbound():
			if !ok {
				s.conn.Kill()
				return
			}
			if !s.handleFrame(raw) {
				return
			}
		}
	}
}

// handleFrame processes one inbound frame. It returns false when the session must terminate.
func (s *Session) handleFrame(raw []byte) bool {
	frame, err := events.Decode(raw)
	if err != nil {
		code := CloseDecodeError
		if errors.Is(err, events.ErrUnknownOpcode) {
			code = CloseUnknownOpcode
		}
		s.log.Debug().Err(err).Msg("Inbound frame rejected")
		s.conn.CloseWithCode(code, "decode error")
		return false
	}

	switch events.ClassifyOpcode(frame.Op) {
	case events.KindHeartbeat:
		s.hb.Beat(clientSequence(frame.Data))
		return true
	case events.KindDispatch:
		// Dispatch frames only flow server to client.
		s.conn.CloseWithCode(CloseDecodeError, "decode error")
		return false
	case events.KindIdentify, events.KindResume:
		s.conn.CloseWithCode(CloseAlreadyAuthenticated, "already authenticated")
		return false
	case events.KindClientRequest:
		// Recognised but handled outside the gateway core.
		s.log.Debug().Int("op", int(frame.Op)).Msg("Ignoring unhandled client request opcode")
		return true
	default:
		s.conn.CloseWithCode(CloseUnknownOpcode, "unknown opcode")
		return false
	}
}

// runInbox forwards events from the user inbox to the socket, stamping each with this session's next sequence number.
func (s *Session) runInbox() {
	defer s.cleanup()

	for {
		select {
		case <-s.conn.Killed():
			return
		case d := <-s.inbox:
			seq := s.seq.Add(1)
			raw, err := events.Encode(events.NewDispatchFrame(seq, d.Name, d.Data))
			if err != nil {
				s.log.Error().Err(err).Str("event", d.Name.String()).Msg("Failed to encode dispatch")
				s.conn.CloseWithCode(CloseUnknownError, "internal server error")
				return
			}
			if !s.conn.Send(raw) {
				return
			}
		}
	}
}

// clientSequence extracts the acknowledged sequence number from a heartbeat payload. Clients that have received no
// dispatches send null, which reads as zero.
func clientSequence(data json.RawMessage) int64 {
	if len(data) == 0 {
		return 0
	}
	var seq int64
	if err := json.Unmarshal(data, &seq); err != nil {
		return 0
	}
	return seq
}
