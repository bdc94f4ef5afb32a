package gateway

import (
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"
)

const (
	// maxMessageSize is the maximum size in bytes of a single inbound WebSocket message.
	maxMessageSize = 4096

	// writeWait is the time allowed to write a message or control frame to the peer.
	writeWait = 10 * time.Second

	// outboundBuffer is the capacity of the per-connection outbound channel.
	outboundBuffer = 256

	// inboundBuffer is the capacity of the per-connection inbound channel.
	inboundBuffer = 16
)

// Conn wraps a raw WebSocket connection into a pair of channels plus a one-shot kill signal so that the handshake,
// heartbeat, session and inbox tasks can all talk to the same socket without sharing a lock on it. Exactly one
// internal goroutine owns the write side and one owns the read side; everything else goes through the channels.
//
// The kill signal is the universal per-session cancellation token: any holder may fire it, every long-running select
// on the connection includes it, and once fired the socket must be treated as dead. Firing kill does not write a
// close frame; callers that want one send it first via CloseWithCode.
type Conn struct {
	ws       *websocket.Conn
	outbound chan []byte
	inbound  chan []byte
	closing  chan closeRequest
	kill     chan struct{}
	killOnce sync.Once
	log      zerolog.Logger
}

type closeRequest struct {
	code   int
	reason string
}

// NewConn starts the reader and writer pumps for an upgraded WebSocket connection. The readDeadline is refreshed on
// every inbound frame; it should exceed the heartbeat interval by a latency allowance so a single late heartbeat does
// not sever the socket before the heartbeat controller rules on it.
func NewConn(ws *websocket.Conn, readDeadline time.Duration, logger zerolog.Logger) *Conn {
	c := &Conn{
		ws:       ws,
		outbound: make(chan []byte, outboundBuffer),
		inbound:  make(chan []byte, inboundBuffer),
		closing:  make(chan closeRequest, 1),
		kill:     make(chan struct{}),
		log:      logger,
	}
	go c.writePump()
	go c.readPump(readDeadline)
	return c
}

// Send publishes a frame on the outbound channel. It returns false once the connection is dead.
func (c *Conn) Send(frame []byte) bool {
	select {
	case c.outbound <- frame:
		return true
	case <-c.kill:
		return false
	}
}

// Inbound returns the channel of raw text frames read from the socket.
func (c *Conn) Inbound() <-chan []byte { return c.inbound }

// Kill fires the connection's kill signal. Safe to call from any task, any number of times.
func (c *Conn) Kill() {
	c.killOnce.Do(func() { close(c.kill) })
}

// Killed returns the channel closed when the kill signal fires.
func (c *Conn) Killed() <-chan struct{} { return c.kill }

// CloseWithCode asks the writer pump to flush any queued frames, write a close control frame with the given code and
// reason, and fire kill. The request goes through the pump so a frame sent just before the close (Reconnect ahead of
// 4007, for instance) reaches the peer first. The first close request wins; if the pump is already gone the kill
// signal has fired and the socket is dead regardless.
func (c *Conn) CloseWithCode(code int, reason string) {
	select {
	case c.closing <- closeRequest{code: code, reason: reason}:
	default:
	}
}

// writePump drains the outbound channel into the socket. A write error fires kill; a kill from elsewhere closes the
// socket, which also unblocks the reader pump.
func (c *Conn) writePump() {
	defer func() { _ = c.ws.Close() }()

	for {
		select {
		case msg := <-c.outbound:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug().Err(err).Msg("WebSocket write error")
				c.Kill()
				return
			}
		case req := <-c.closing:
			c.flushOutbound()
			msg := websocket.FormatCloseMessage(req.code, req.reason)
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			c.Kill()
			return
		case <-c.kill:
			return
		}
	}
}

// flushOutbound writes every frame already queued ahead of a close request.
func (c *Conn) flushOutbound() {
	for {
		select {
		case msg := <-c.outbound:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump publishes frames from the socket onto the inbound channel. Read errors, including the peer's close frame,
// fire kill; no reciprocal close frame is sent for a peer-initiated close.
func (c *Conn) readPump(readDeadline time.Duration) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(readDeadline))

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("WebSocket read error")
			}
			c.Kill()
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readDeadline))

		select {
		case c.inbound <- message:
		case <-c.kill:
			return
		}
	}
}
