package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

const eventsChannel = "symfonia.gateway.events"

// envelope is the JSON structure carried on the gateway events pub/sub channel. Users and Roles form the fan-out
// target descriptor; an envelope with neither is a broadcast to no one and is dropped.
type envelope struct {
	Type  string          `json:"t"`
	Data  json.RawMessage `json:"d"`
	Users []uuid.UUID     `json:"users,omitempty"`
	Roles []uuid.UUID     `json:"roles,omitempty"`
}

// Publisher is the producer half of the REST-to-gateway bridge. REST handlers publish dispatch events with a target
// descriptor; the hub's Run loop consumes them and fans out. Keeping Valkey in the middle means the REST surface
// never imports the gateway's live state.
type Publisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewPublisher creates a gateway event publisher.
func NewPublisher(rdb *redis.Client, logger zerolog.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: logger}
}

// Publish serialises the event and its targets and publishes them to the gateway events channel. An unknown dispatch
// name is a producer error and is returned to the caller without touching any session.
func (p *Publisher) Publish(ctx context.Context, userIDs, roleIDs []uuid.UUID, name events.DispatchName, data any) error {
	if !name.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownDispatchName, string(name))
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal gateway event: %w", err)
	}
	payload, err := json.Marshal(envelope{
		Type:  string(name),
		Data:  raw,
		Users: userIDs,
		Roles: roleIDs,
	})
	if err != nil {
		return fmt.Errorf("marshal gateway envelope: %w", err)
	}
	if err := p.rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish gateway event: %w", err)
	}
	return nil
}

// Run subscribes to the gateway events channel and feeds each envelope to the fan-out dispatcher. It blocks until
// the context is cancelled or the subscription fails. Ill-formed envelopes are logged and skipped; they never affect
// a session.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) error {
	sub := rdb.Subscribe(ctx, eventsChannel)
	defer func() { _ = sub.Close() }()

	h.log.Info().Msg("Gateway hub subscribed to event channel")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.handlePubSubEvent(msg.Payload)
		}
	}
}

// handlePubSubEvent fans out a single envelope from the events channel.
func (h *Hub) handlePubSubEvent(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		h.log.Warn().Err(err).Msg("Invalid gateway event envelope")
		return
	}

	name, err := events.ParseDispatchName(env.Type)
	if err != nil {
		h.log.Warn().Err(err).Str("type", env.Type).Msg("Unknown dispatch name in gateway event")
		return
	}

	if err := NewBulkMessage(name, env.Data).ToUsers(env.Users...).ToRoles(env.Roles...).Send(h.reg); err != nil {
		h.log.Warn().Err(err).Str("event", name.String()).Msg("Bulk publish failed")
	}
}
