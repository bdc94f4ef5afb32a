package gateway

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestConnSendDelivers(t *testing.T) {
	t.Parallel()

	client, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())
	defer conn.Kill()

	if !conn.Send([]byte(`{"op":11}`)) {
		t.Fatal("Send() = false on a live connection")
	}

	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(raw) != `{"op":11}` {
		t.Errorf("client read %q, want %q", raw, `{"op":11}`)
	}
}

func TestConnCloseFlushesQueuedFrames(t *testing.T) {
	t.Parallel()

	client, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())

	conn.Send([]byte(`{"op":7}`))
	conn.CloseWithCode(CloseUnknownError, "internal server error")

	frame := readFrame(t, client)
	if frame.Op != 7 {
		t.Fatalf("op = %d, want 7 ahead of the close frame", frame.Op)
	}
	expectClose(t, client, CloseUnknownError)

	select {
	case <-conn.Killed():
	case <-time.After(2 * time.Second):
		t.Fatal("kill signal never fired after close")
	}
}

func TestConnKillIdempotent(t *testing.T) {
	t.Parallel()

	_, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())

	conn.Kill()
	conn.Kill()

	select {
	case <-conn.Killed():
	default:
		t.Fatal("kill signal not fired")
	}
}

func TestConnPeerDisconnectFiresKill(t *testing.T) {
	t.Parallel()

	client, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())

	_ = client.Close()

	select {
	case <-conn.Killed():
	case <-time.After(5 * time.Second):
		t.Fatal("kill signal never fired after peer disconnect")
	}
}

func TestConnOversizedMessageKills(t *testing.T) {
	t.Parallel()

	client, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())

	sendFrame(t, client, string(bytes.Repeat([]byte("a"), maxMessageSize+1)))

	select {
	case <-conn.Killed():
	case <-time.After(5 * time.Second):
		t.Fatal("kill signal never fired for oversized message")
	}
}

func TestConnInboundDeliversFrames(t *testing.T) {
	t.Parallel()

	client, server := newConnPair(t)
	conn := NewConn(server, time.Minute, zerolog.Nop())
	defer conn.Kill()

	sendFrame(t, client, `{"op":1,"d":3}`)

	select {
	case raw := <-conn.Inbound():
		if string(raw) != `{"op":1,"d":3}` {
			t.Errorf("inbound = %q, want heartbeat frame", raw)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("inbound frame never arrived")
	}
}
