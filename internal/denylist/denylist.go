// Package denylist remembers revoked token ids until the tokens expire.
package denylist

import (
	"sync"
	"time"
)

// now is a small indirection to allow test stubbing.
var now = time.Now

// Denylist is a goroutine-safe set of token ids with an absolute expiry per
// entry. Expired entries are treated as absent and dropped by Purge, which
// Revoke also runs opportunistically.
type Denylist struct {
	mu    sync.RWMutex
	items map[string]time.Time
	// purgeEvery bounds how many Revoke calls pass between purges.
	purgeEvery int
	revokes    int
}

func New() *Denylist {
	return &Denylist{
		items:      make(map[string]time.Time),
		purgeEvery: 64,
	}
}

// Revoke marks id as revoked until expiresAt. Revoking an already expired
// token is a no-op.
func (d *Denylist) Revoke(id string, expiresAt time.Time) {
	if !now().Before(expiresAt) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.items[id]; !ok || cur.Before(expiresAt) {
		d.items[id] = expiresAt
	}
	d.revokes++
	if d.revokes%d.purgeEvery == 0 {
		d.purgeLocked()
	}
}

// IsRevoked reports whether id is revoked and not yet expired.
func (d *Denylist) IsRevoked(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	exp, ok := d.items[id]
	return ok && now().Before(exp)
}

// Len counts only non-expired entries.
func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	count := 0
	ts := now()
	for _, exp := range d.items {
		if ts.Before(exp) {
			count++
		}
	}
	return count
}

// Purge removes expired entries.
func (d *Denylist) Purge() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeLocked()
}

func (d *Denylist) purgeLocked() {
	ts := now()
	for id, exp := range d.items {
		if !ts.Before(exp) {
			delete(d.items, id)
		}
	}
}
