package gateway

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

const (
	// HeartbeatInterval is the liveness deadline: a session that sends no heartbeat for this long is closed with 4009.
	HeartbeatInterval = 45 * time.Second

	// LatencyBuffer is the slack granted on top of the heartbeat interval for transport latency. The socket read
	// deadline uses interval plus buffer so a heartbeat that is merely late reaches the controller, which then rules
	// on it under the strict interval.
	LatencyBuffer = 5 * time.Second

	// maxSequenceDrift is the largest acceptable gap between the session's dispatch sequence and the sequence
	// acknowledged in a client heartbeat. A drift of one or two events is in-flight latency; anything larger means
	// the client has lost events and must reconnect.
	maxSequenceDrift = 3

	// livenessTick is how often the expiry check runs. One second keeps the close within a second of the deadline.
	livenessTick = time.Second
)

// Heartbeater enforces per-session liveness. It consumes heartbeats forwarded by the session's inbound loop,
// acknowledges each one, detects sequence drift, and kills the session when the deadline lapses. It learns the
// session token through a one-shot channel once the handshake completes, so the eager-spawn path (heartbeat arriving
// before IDENTIFY) still ends up associated with the right session.
type Heartbeater struct {
	conn     *Conn
	seq      *atomic.Int64
	interval time.Duration

	beats   chan int64
	tokenCh chan string
	log     zerolog.Logger
}

// NewHeartbeater creates a heartbeat controller for one connection. seq is the session's shared dispatch counter.
func NewHeartbeater(conn *Conn, seq *atomic.Int64, interval time.Duration, logger zerolog.Logger) *Heartbeater {
	if interval <= 0 {
		interval = HeartbeatInterval
	}
	return &Heartbeater{
		conn:     conn,
		seq:      seq,
		interval: interval,
		beats:    make(chan int64, 4),
		tokenCh:  make(chan string, 1),
		log:      logger.With().Str("component", "heartbeat").Logger(),
	}
}

// Beat forwards a client heartbeat's acknowledged sequence number to the controller. Never blocks; if the controller
// is wedged the liveness timer will deal with it.
func (h *Heartbeater) Beat(clientSeq int64) {
	select {
	case h.beats <- clientSeq:
	default:
	}
}

// SetToken hands the controller its session token once IDENTIFY or RESUME succeeds.
func (h *Heartbeater) SetToken(token string) {
	select {
	case h.tokenCh <- token:
	default:
	}
}

// Run drives the liveness loop until the kill signal fires. It must run on its own goroutine.
func (h *Heartbeater) Run() {
	lastBeat := time.Now()
	token := ""

	ticker := time.NewTicker(livenessTick)
	defer ticker.Stop()

	for {
		select {
		case <-h.conn.Killed():
			return

		case token = <-h.tokenCh:

		case clientSeq := <-h.beats:
			if drift := h.seq.Load() - clientSeq; drift >= maxSequenceDrift || drift <= -maxSequenceDrift {
				h.log.Debug().Int64("drift", drift).Str("session", token).Msg("Heartbeat sequence out of sync")
				if frame, err := events.NewReconnectFrame(); err == nil {
					h.conn.Send(frame)
				}
				h.conn.CloseWithCode(CloseInvalidSequence, "sequence out of sync, reconnect")
				return
			}
			lastBeat = time.Now()

			ack, err := events.NewHeartbeatACKFrame()
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to build heartbeat ACK")
				continue
			}
			if !h.conn.Send(ack) {
				return
			}

		case now := <-ticker.C:
			if now.Sub(lastBeat) > h.interval {
				h.log.Debug().Str("session", token).Msg("Heartbeat deadline lapsed")
				h.conn.CloseWithCode(CloseSessionTimedOut, "heartbeat timeout")
				return
			}
		}
	}
}
