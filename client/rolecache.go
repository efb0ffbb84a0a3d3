package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SessionSource fetches the current session. Implemented by *Client.
type SessionSource interface {
	Me(ctx context.Context) (*Session, error)
}

// RoleCache keeps a per-project role map for synchronous gating decisions.
//
// Roles are fetched once per project switch; concurrent switches to the same
// project share one fetch via singleflight. Get never blocks and never errors:
// an unresolved project or a failed fetch both yield an empty slice, so
// callers treat "unknown" identically to "no access" (fail closed).
//
// Switching projects bumps a generation counter. A fetch started before a
// switch is discarded when it resolves, whatever project it was for, so the
// cache never applies stale roles after a switch (last switch wins).
type RoleCache struct {
	source SessionSource
	group  singleflight.Group

	mu         sync.Mutex
	generation uint64
	active     string
	roles      map[string][]string
}

// NewRoleCache creates a RoleCache backed by the given session source.
func NewRoleCache(source SessionSource) *RoleCache {
	return &RoleCache{
		source: source,
		roles:  make(map[string][]string),
	}
}

// Get returns the cached roles for a project. Returns an empty slice when the
// project has not been resolved or its fetch failed.
func (c *RoleCache) Get(projectID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.roles[projectID]
	if !ok {
		return []string{}
	}

	roles := make([]string, len(cached))
	copy(roles, cached)
	return roles
}

// ActiveProject returns the project of the most recent switch.
func (c *RoleCache) ActiveProject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SwitchProject makes projectID the active project and fetches its roles.
// Returns the fetch error for observability; the cache itself fails closed,
// so callers may ignore it and rely on Get returning empty.
func (c *RoleCache) SwitchProject(ctx context.Context, projectID string) error {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.active = projectID
	c.mu.Unlock()

	session, err, _ := c.group.Do(projectID, func() (interface{}, error) {
		return c.source.Me(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	// A later switch supersedes this fetch: discard the result.
	if generation != c.generation {
		return nil
	}

	if err != nil {
		delete(c.roles, projectID)
		return err
	}

	roles := session.(*Session).Roles[projectID]
	if roles == nil {
		roles = []string{}
	}
	c.roles[projectID] = roles

	return nil
}

// Reset clears all cached roles, e.g. on sign-out. In-flight fetches are
// discarded when they resolve.
func (c *RoleCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.active = ""
	c.roles = make(map[string][]string)
}
