// Package registry tracks every live terminal connection and its
// metadata.  It is authoritative only for "who is currently listening";
// business state always lives in the database.  The registry is
// process-wide transient state, rebuilt from scratch on every
// connection, and it is the single collection the broadcast hub fans
// out over.
package registry

import (
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// Conn is the minimal write surface the registry needs from a live
// terminal connection.  gorilla/websocket's *Conn satisfies it; tests
// substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// terminalIDPattern is the accepted identifier format: alphanumeric
// plus hyphen/underscore, at most 50 characters.
var terminalIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// Handle pairs a live connection with its terminal metadata.  Handles
// are created by Register and owned by the registry; callers hold them
// only to touch, update or unregister.
type Handle struct {
	conn Conn
	mu   sync.Mutex // guards meta
	meta model.Terminal
}

// ID returns the terminal identifier, which never changes after
// registration.
func (h *Handle) ID() string { return h.meta.ID }

// Conn returns the live connection for writing.
func (h *Handle) Conn() Conn { return h.conn }

// Meta returns a copy of the current terminal metadata.
func (h *Handle) Meta() model.Terminal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meta
}

// Registry is a lock-guarded collection of connected terminals.  All
// access goes through its narrow interface so callers cannot bypass
// identifier validation.
type Registry struct {
	mu        sync.RWMutex
	terminals map[string]*Handle
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{terminals: make(map[string]*Handle)}
}

// Register adds a connection under the requested terminal id.  A
// missing or malformed id is never grounds for rejection: a broken
// terminal must still be able to receive broadcasts, so the registry
// substitutes a generated id and logs a warning instead.  A duplicate
// id gets the same treatment, since two devices fighting over one id
// would otherwise silently evict each other.
func (r *Registry) Register(conn Conn, requestedID string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := requestedID
	if !terminalIDPattern.MatchString(id) {
		id = GenerateTerminalID()
		if requestedID != "" {
			log.Printf("registry: invalid terminal id %q, substituting %s", requestedID, id)
		}
	}
	if _, taken := r.terminals[id]; taken {
		orig := id
		id = GenerateTerminalID()
		log.Printf("registry: terminal id %q already connected, substituting %s", orig, id)
	}

	now := time.Now().UTC()
	h := &Handle{
		conn: conn,
		meta: model.Terminal{ID: id, ConnectedAt: now, LastActivityAt: now},
	}
	r.terminals[id] = h
	return h
}

// Touch refreshes the handle's last-activity timestamp.  Called on
// every inbound message, heartbeats included.
func (r *Registry) Touch(h *Handle) {
	h.mu.Lock()
	h.meta.LastActivityAt = time.Now().UTC()
	h.mu.Unlock()
}

// UpdateInfo merges the optional descriptive fields a terminal reports.
// Empty fields leave the existing values alone and nothing here can
// invalidate the connection.
func (r *Registry) UpdateInfo(h *Handle, info model.TerminalInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if info.Name != "" {
		h.meta.Name = info.Name
	}
	if info.Location != "" {
		h.meta.Location = info.Location
	}
	if info.User != "" {
		h.meta.User = info.User
	}
	h.meta.LastActivityAt = time.Now().UTC()
}

// Unregister removes the handle.  It is idempotent: unregistering a
// handle that is already gone is a no-op, so disconnect and error paths
// may both call it without coordination.
func (r *Registry) Unregister(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	if cur, ok := r.terminals[h.meta.ID]; ok && cur == h {
		delete(r.terminals, h.meta.ID)
	}
	r.mu.Unlock()
}

// Count returns the number of connected terminals.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.terminals)
}

// Handles returns the current set of live handles for fan-out.
func (r *Registry) Handles() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.terminals))
	for _, h := range r.terminals {
		out = append(out, h)
	}
	return out
}

// Snapshot returns a point-in-time copy of every terminal's metadata,
// for the operator-facing "which terminals are online" query.
func (r *Registry) Snapshot() []model.Terminal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Terminal, 0, len(r.terminals))
	for _, h := range r.terminals {
		out = append(out, h.Meta())
	}
	return out
}

// GenerateTerminalID builds a fresh identifier of the form
// terminal-<unix-ts>-<short-uuid>.  The result always matches the
// accepted pattern.
func GenerateTerminalID() string {
	return fmt.Sprintf("terminal-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
