package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

// BulkMessage collects a fan-out target descriptor: explicit user IDs, role IDs, and the event to deliver. Build one
// with NewBulkMessage, add targets, then Send it against a registry.
type BulkMessage struct {
	users []uuid.UUID
	roles []uuid.UUID
	name  events.DispatchName
	data  json.RawMessage
}

// NewBulkMessage starts a bulk publish for the given event. The payload is opaque to the gateway.
func NewBulkMessage(name events.DispatchName, data json.RawMessage) *BulkMessage {
	return &BulkMessage{name: name, data: data}
}

// ToUsers adds explicit recipient users.
func (b *BulkMessage) ToUsers(userIDs ...uuid.UUID) *BulkMessage {
	b.users = append(b.users, userIDs...)
	return b
}

// ToRoles adds recipient roles; every member of each role receives the event.
func (b *BulkMessage) ToRoles(roleIDs ...uuid.UUID) *BulkMessage {
	b.roles = append(b.roles, roleIDs...)
	return b
}

// Send resolves the recipient set and publishes the event once per distinct recipient inbox. Recipients without live
// sessions are skipped silently; an empty recipient set is a successful no-op. Delivery into each inbox is
// best-effort: a slow session may shed its oldest queued events, and that never fails the send.
func (b *BulkMessage) Send(reg *Registry) error {
	if !b.name.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownDispatchName, string(b.name))
	}

	recipients := reg.ResolveRecipients(b.users, b.roles)
	if len(recipients) == 0 {
		return nil
	}

	d := Dispatch{Name: b.name, Data: b.data}
	for _, userID := range recipients {
		reg.PublishToUser(userID, d)
	}
	return nil
}
