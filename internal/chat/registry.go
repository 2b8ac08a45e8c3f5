package chat

import "sync"

// User presence statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
)

// ValidStatus reports whether s is a known presence status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Registry tracks the single live connection per user. Single-device model:
// a new connection for the same user displaces the old one.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client // userID -> client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register inserts the client, replacing any prior entry for the same user.
// The displaced client (if any) is returned so the caller can close it.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.clients[c.UserID]
	c.status = StatusOnline
	r.clients[c.UserID] = c
	return prev
}

// Resolve returns the live client for userID, or nil if offline. Callers
// treat nil as "deliver nothing", never as an error.
func (r *Registry) Resolve(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// SetStatus updates the presence status. Unknown statuses and unknown users
// are no-ops: a status_change racing a disconnect must not resurrect an entry.
func (r *Registry) SetStatus(userID, status string) {
	if !ValidStatus(status) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[userID]; ok {
		c.status = status
	}
}

// Status returns the tracked presence status, or offline when unregistered.
func (r *Registry) Status(userID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[userID]; ok {
		return c.status
	}
	return StatusOffline
}

// Unregister removes c and reports whether it was the current entry for its
// user. A connection displaced by Register gets false here, so its teardown
// must not touch the replacement's presence or calls. Idempotent.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[c.UserID]; ok && cur == c {
		delete(r.clients, c.UserID)
		return true
	}
	return false
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
