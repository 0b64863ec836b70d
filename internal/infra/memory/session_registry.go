package memory

import "sync"

// SessionRegistry is the in-process implementation of app.SessionRegistry:
// a claim set enforcing at most one live quiz session per owner.
type SessionRegistry struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{claims: make(map[string]struct{})}
}

func (r *SessionRegistry) Claim(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[ownerID]; ok {
		return false
	}
	r.claims[ownerID] = struct{}{}
	return true
}

func (r *SessionRegistry) Release(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, ownerID)
}
