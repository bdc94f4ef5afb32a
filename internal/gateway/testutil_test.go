package gateway

import (
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/polyphony-chat/symfonia-sub000/internal/config"
	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		GatewayHeartbeatInterval: 45 * time.Second,
		GatewayHandshakeTimeout:  5 * time.Second,
		GatewayResumeWindow:      90 * time.Second,
		GatewayEvictionInterval:  5 * time.Second,
		GatewayInboxBuffer:       16,
	}
}

func newTestHub(t *testing.T, cfg *config.Config, tokens map[string]uuid.UUID) (*Hub, *Registry) {
	t.Helper()
	reg := NewRegistry(NewRoleUserIndex(), cfg.GatewayResumeWindow, cfg.GatewayInboxBuffer, zerolog.Nop())
	verify := func(token string) (uuid.UUID, error) {
		if id, ok := tokens[token]; ok {
			return id, nil
		}
		return uuid.Nil, errors.New("invalid token")
	}
	return NewHub(reg, verify, cfg, zerolog.Nop()), reg
}

// newConnPair runs a WebSocket handshake over an in-memory listener and returns both ends of the socket.
func newConnPair(t *testing.T) (client, server *websocket.Conn) {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	done := make(chan struct{})
	serverSide := make(chan *websocket.Conn, 1)

	upgrader := websocket.FastHTTPUpgrader{}
	srv := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			_ = upgrader.Upgrade(ctx, func(c *websocket.Conn) {
				serverSide <- c
				// The upgrader tears the socket down when this handler returns, so hold it open for the test.
				<-done
			})
		},
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})

	dialer := websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) { return ln.Dial() },
	}
	client, resp, err := dialer.Dial("ws://gateway/", nil)
	if err != nil {
		t.Fatalf("dial in-memory websocket: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server = <-serverSide:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server side of websocket pair")
	}
	return client, server
}

// newIdleConn builds a connection adapter with no backing socket, for registry tests that never write.
func newIdleConn() *Conn {
	return &Conn{
		outbound: make(chan []byte, outboundBuffer),
		inbound:  make(chan []byte, inboundBuffer),
		kill:     make(chan struct{}),
		log:      zerolog.Nop(),
	}
}

func newIdleSession(reg *Registry, token string, userID uuid.UUID) *Session {
	return newSession(token, userID, newIdleConn(), reg, nil, &atomic.Int64{}, zerolog.Nop())
}

func sendFrame(t *testing.T, c *websocket.Conn, raw string) {
	t.Helper()
	if err := c.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, c *websocket.Conn) *events.Frame {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f events.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal frame %q: %v", raw, err)
	}
	return &f
}

// expectClose drains remaining frames until the peer's close frame arrives and asserts its code.
func expectClose(t *testing.T, c *websocket.Conn, code int) {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err := c.ReadMessage()
		if err == nil {
			continue
		}
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			if ce.Code != code {
				t.Fatalf("close code = %d, want %d", ce.Code, code)
			}
			return
		}
		t.Fatalf("read error = %v, want close code %d", err, code)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

// identify drives a fresh connection through HELLO and IDENTIFY, returning once READY has been read.
func identify(t *testing.T, client *websocket.Conn, token string) {
	t.Helper()
	if hello := readFrame(t, client); hello.Op != events.OpcodeHello {
		t.Fatalf("first frame op = %d, want %d", hello.Op, events.OpcodeHello)
	}
	sendFrame(t, client, `{"op":2,"d":{"token":"`+token+`"}}`)
	ready := readFrame(t, client)
	if ready.Op != events.OpcodeDispatch || ready.Type == nil || *ready.Type != events.Ready {
		t.Fatalf("expected READY dispatch, got op=%d type=%v", ready.Op, ready.Type)
	}
}
