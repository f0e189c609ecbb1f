// Package directory wraps the external user system behind the two lookups
// the core needs: the active admin roster for alert fan-out, and display
// names for audit readability.
package directory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Directory is the consumed interface onto the platform's user system.
type Directory interface {
	// ListActiveAdmins returns the user ids of every active staff/admin
	// account.
	ListActiveAdmins(ctx context.Context) ([]string, error)

	// ResolveDisplayName returns a human-readable name for a user id.
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
}

// Static is a Directory backed by a fixed admin roster, for deployments
// where the roster arrives via configuration.
type Static struct {
	AdminIDs []string
}

// ListActiveAdmins returns the configured roster.
func (s *Static) ListActiveAdmins(ctx context.Context) ([]string, error) {
	return s.AdminIDs, nil
}

// ResolveDisplayName falls back to the raw id.
func (s *Static) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	return userID, nil
}

// Cached decorates a Directory with an expiring display-name cache so audit
// paths don't hammer the user system.
type Cached struct {
	next  Directory
	names *expirable.LRU[string, string]
}

// NewCached wraps next with a display-name cache of the given size and TTL.
func NewCached(next Directory, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		names: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Make sure we conform to the interface
var _ Directory = (*Cached)(nil)

// ListActiveAdmins always hits the underlying directory; the roster must
// reflect deactivations promptly.
func (c *Cached) ListActiveAdmins(ctx context.Context) ([]string, error) {
	return c.next.ListActiveAdmins(ctx)
}

// ResolveDisplayName serves from cache when possible.
func (c *Cached) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := c.names.Get(userID); ok {
		return name, nil
	}
	name, err := c.next.ResolveDisplayName(ctx, userID)
	if err != nil {
		return "", err
	}
	c.names.Add(userID, name)
	return name, nil
}
