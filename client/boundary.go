package client

// Boundary gates rendering on a required role for the active project. It
// consults the RoleCache only; the server's authorization check remains the
// sole enforcement point and denies the same operation server-side even if a
// boundary mistakenly renders it.
type Boundary struct {
	cache    *RoleCache
	fallback string
}

// NewBoundary creates a Boundary with a fixed fallback rendered when the
// required role is missing.
func NewBoundary(cache *RoleCache, fallback string) *Boundary {
	return &Boundary{
		cache:    cache,
		fallback: fallback,
	}
}

// Allowed reports whether the project's cached roles include the required
// role. An empty required role always allows. An unresolved project never
// does.
func (b *Boundary) Allowed(projectID, role string) bool {
	if role == "" {
		return true
	}

	for _, held := range b.cache.Get(projectID) {
		if held == role {
			return true
		}
	}

	return false
}

// Guard renders the protected content when the required role is held and the
// fixed fallback otherwise. An empty required role renders unconditionally.
func (b *Boundary) Guard(projectID, role string, render func() string) string {
	if b.Allowed(projectID, role) {
		return render()
	}
	return b.fallback
}
