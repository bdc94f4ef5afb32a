package gateway

import (
	"time"

	"sync"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// User is the gateway-side identity of one logical user. A user exists while at least one session is live; all of the
// user's sessions consume the same inbox, which keeps fan-out proportional to users rather than sessions.
type User struct {
	ID    uuid.UUID
	Inbox *Inbox

	mu       sync.Mutex
	sessions map[string]*Session
}

// SessionCount returns the number of live sessions the user holds.
func (u *User) SessionCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

// ResumableSession is the tombstone left behind when a session disconnects. It holds a weak reference to the former
// user (the ID, not the live object) so an empty user can be dropped while its tombstones age out.
type ResumableSession struct {
	Token                  string
	UserID                 uuid.UUID
	DisconnectedAtSequence int64
	DisconnectedAt         time.Time
}

// Registry is the process-wide connected-users singleton. It owns all live user and session state: the user map, the
// per-user inbox index, the session-token index, the resumable-session table, and the role membership index.
//
// Lock order is registry top-level, then per-user. Nothing acquires in the reverse direction, and the registry lock
// is never held across a socket write.
type Registry struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*User
	inboxes   map[uuid.UUID]*Inbox
	tokens    map[string]*Session
	resumable map[string]ResumableSession

	roles *RoleUserIndex

	inboxBuffer  int
	resumeWindow time.Duration
	log          zerolog.Logger
}

// NewRegistry creates an empty registry. resumeWindow bounds how long a disconnected session stays resumable;
// inboxBuffer sizes each session's view of its user inbox.
func NewRegistry(roles *RoleUserIndex, resumeWindow time.Duration, inboxBuffer int, logger zerolog.Logger) *Registry {
	if roles == nil {
		roles = NewRoleUserIndex()
	}
	return &Registry{
		users:        make(map[uuid.UUID]*User),
		inboxes:      make(map[uuid.UUID]*Inbox),
		tokens:       make(map[string]*Session),
		resumable:    make(map[string]ResumableSession),
		roles:        roles,
		inboxBuffer:  inboxBuffer,
		resumeWindow: resumeWindow,
		log:          logger.With().Str("component", "registry").Logger(),
	}
}

// Roles exposes the role membership index for the dispatcher and the REST-side maintenance hooks.
func (r *Registry) Roles() *RoleUserIndex { return r.roles }

// GetOrCreateUser returns the live user record for the given ID, creating it with a fresh inbox on first use.
func (r *Registry) GetOrCreateUser(userID uuid.UUID) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		return u
	}
	u := &User{
		ID:       userID,
		Inbox:    NewInbox(r.inboxBuffer),
		sessions: make(map[string]*Session),
	}
	r.users[userID] = u
	r.inboxes[userID] = u.Inbox
	return u
}

// RegisterSession inserts the session into its user's session map and the token index. A live session already holding
// the same token is displaced: its kill signal fires and its registry entries are replaced in place. Any resumable
// tombstone for the token is cleared, since the token is live again.
func (r *Registry) RegisterSession(u *User, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.tokens[s.Token]; ok && old != s {
		r.log.Debug().Stringer("user_id", old.UserID).Msg("Displacing session with reused token")
		old.conn.Kill()
		if oldUser, ok := r.users[old.UserID]; ok {
			oldUser.mu.Lock()
			delete(oldUser.sessions, s.Token)
			oldUser.mu.Unlock()
			oldUser.Inbox.Unsubscribe(s.Token)
		}
	}
	delete(r.resumable, s.Token)

	r.tokens[s.Token] = s
	u.mu.Lock()
	u.sessions[s.Token] = s
	u.mu.Unlock()

	r.log.Debug().Stringer("user_id", u.ID).Int("sessions", u.SessionCount()).Msg("Session registered")
}

// DeregisterSession removes a session from both indices, records its resumable tombstone, and drops the user record
// when the last session is gone. Calls for a session that was already deregistered, or displaced by a newer session
// holding the same token, are no-ops.
func (r *Registry) DeregisterSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := s.Token
	if current, ok := r.tokens[token]; !ok || current != s {
		return
	}
	delete(r.tokens, token)

	r.resumable[token] = ResumableSession{
		Token:                  token,
		UserID:                 s.UserID,
		DisconnectedAtSequence: s.seq.Load(),
		DisconnectedAt:         time.Now(),
	}

	u, ok := r.users[s.UserID]
	if !ok {
		return
	}
	u.Inbox.Unsubscribe(token)

	u.mu.Lock()
	delete(u.sessions, token)
	empty := len(u.sessions) == 0
	u.mu.Unlock()

	if empty {
		delete(r.users, s.UserID)
		delete(r.inboxes, s.UserID)
		r.log.Debug().Stringer("user_id", s.UserID).Msg("Last session gone, user dropped")
	}
}

// TakeResumable removes and returns the resumable tombstone for a token, if one exists within the window.
func (r *Registry) TakeResumable(token string) (ResumableSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.resumable[token]
	if !ok {
		return ResumableSession{}, false
	}
	if time.Since(entry.DisconnectedAt) > r.resumeWindow {
		delete(r.resumable, token)
		return ResumableSession{}, false
	}
	delete(r.resumable, token)
	return entry, true
}

// PublishToUser enqueues the event onto the user's inbox. Users with no live sessions have no inbox, so the publish
// is a no-op for them.
func (r *Registry) PublishToUser(userID uuid.UUID, d Dispatch) {
	r.mu.RLock()
	inbox := r.inboxes[userID]
	r.mu.RUnlock()
	if inbox == nil {
		return
	}
	inbox.Publish(d)
}

// ResolveRecipients unions the explicit user IDs with the members of each role and de-duplicates the result.
func (r *Registry) ResolveRecipients(userIDs, roleIDs []uuid.UUID) []uuid.UUID {
	set := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	for _, roleID := range roleIDs {
		for _, id := range r.roles.Members(roleID) {
			set[id] = struct{}{}
		}
	}
	recipients := make([]uuid.UUID, 0, len(set))
	for id := range set {
		recipients = append(recipients, id)
	}
	return recipients
}

// UserCount returns the number of users with at least one live session.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// SessionCount returns the number of live sessions across all users.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

// ResumableCount returns the number of tombstones awaiting resume or eviction.
func (r *Registry) ResumableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resumable)
}

// lookupSession returns the live session for a token.
func (r *Registry) lookupSession(token string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tokens[token]
	return s, ok
}

// Shutdown sends a Reconnect frame to every live session, closes each socket with Going Away, and fires every kill
// signal. Cleanup into the resumable table happens on each session's own task as the kills propagate.
func (r *Registry) Shutdown(reconnectFrame []byte) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.tokens))
	for _, s := range r.tokens {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if reconnectFrame != nil {
			s.conn.Send(reconnectFrame)
		}
		s.conn.CloseWithCode(websocket.CloseGoingAway, "server shutting down")
	}
	r.log.Info().Int("sessions", len(sessions)).Msg("Registry shut down")
}
