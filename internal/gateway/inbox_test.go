package gateway

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

func TestInboxDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	in := NewInbox(4)
	a := in.Subscribe("tok-a")
	b := in.Subscribe("tok-b")

	in.Publish(Dispatch{Name: events.MessageCreate, Data: json.RawMessage(`{"id":"1"}`)})

	for name, ch := range map[string]<-chan Dispatch{"a": a, "b": b} {
		select {
		case d := <-ch:
			if d.Name != events.MessageCreate {
				t.Errorf("subscriber %s got %q, want MESSAGE_CREATE", name, d.Name)
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}

func TestInboxOverflowShedsOldest(t *testing.T) {
	t.Parallel()

	in := NewInbox(2)
	ch := in.Subscribe("tok-a")

	for i := 1; i <= 3; i++ {
		in.Publish(Dispatch{Name: events.MessageCreate, Data: json.RawMessage(`{"n":` + strconv.Itoa(i) + `}`)})
	}

	// Buffer of two with three publishes: the first event was shed, two and three remain in order.
	want := []string{`{"n":2}`, `{"n":3}`}
	for _, w := range want {
		select {
		case d := <-ch:
			if string(d.Data) != w {
				t.Errorf("got %s, want %s", d.Data, w)
			}
		default:
			t.Fatalf("expected %s, channel empty", w)
		}
	}
	select {
	case d := <-ch:
		t.Errorf("unexpected extra event %s", d.Data)
	default:
	}
}

func TestInboxUnsubscribe(t *testing.T) {
	t.Parallel()

	in := NewInbox(4)
	ch := in.Subscribe("tok-a")
	in.Unsubscribe("tok-a")

	in.Publish(Dispatch{Name: events.TypingStart, Data: json.RawMessage(`{}`)})

	select {
	case <-ch:
		t.Error("unsubscribed session still received an event")
	default:
	}
	if in.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", in.Subscribers())
	}
}

func TestInboxResubscribeReplaces(t *testing.T) {
	t.Parallel()

	in := NewInbox(4)
	old := in.Subscribe("tok-a")
	replacement := in.Subscribe("tok-a")

	in.Publish(Dispatch{Name: events.TypingStart, Data: json.RawMessage(`{}`)})

	select {
	case <-old:
		t.Error("stale subscription still receives events")
	default:
	}
	select {
	case <-replacement:
	default:
		t.Error("replacement subscription received nothing")
	}
	if in.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", in.Subscribers())
	}
}
