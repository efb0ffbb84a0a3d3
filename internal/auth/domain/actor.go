package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Actor is the resolved, request-scoped identity: one API key bound to one
// project with a fixed capability set. Actors are constructed once per
// authenticated request by the resolver and never mutated afterwards.
type Actor struct {
	KeyID       uuid.UUID    // Identifier of the backing API key
	ProjectID   uuid.UUID    // Project (tenant) the actor is bound to
	Name        string       // Human-readable key label
	Permissions []Capability // Always a subset of the catalog, copied from the key record
}

// HasCapability reports whether the actor holds the given capability.
func (a *Actor) HasCapability(c Capability) bool {
	return slices.Contains(a.Permissions, c)
}

// HasAny reports whether the actor holds at least one of the given capabilities.
func (a *Actor) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if a.HasCapability(c) {
			return true
		}
	}
	return false
}

// HasAll reports whether the actor holds every one of the given capabilities.
func (a *Actor) HasAll(caps ...Capability) bool {
	for _, c := range caps {
		if !a.HasCapability(c) {
			return false
		}
	}
	return true
}

// CheckMode selects how a required capability set is combined.
type CheckMode int

const (
	// AnyCapability allows the request when the actor holds at least one
	// required capability. This is the common case.
	AnyCapability CheckMode = iota

	// AllCapabilities requires the full required set to be held.
	AllCapabilities
)

// Decision is the result of an authorization check. On deny, Missing names the
// capabilities the actor lacked so the caller can produce an audit-friendly
// forbidden response. Missing never includes capabilities the actor holds.
type Decision struct {
	Allowed bool
	Missing []Capability
}

// Check evaluates the required capabilities against the actor's set.
// A pure set operation: no hierarchy, no partial credit. An empty required set
// denies in both modes.
func Check(actor *Actor, mode CheckMode, required ...Capability) Decision {
	if actor == nil || len(required) == 0 {
		return Decision{Allowed: false, Missing: slices.Clone(required)}
	}

	switch mode {
	case AllCapabilities:
		var missing []Capability
		for _, c := range required {
			if !actor.HasCapability(c) {
				missing = append(missing, c)
			}
		}
		return Decision{Allowed: len(missing) == 0, Missing: missing}
	default:
		if actor.HasAny(required...) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, Missing: slices.Clone(required)}
	}
}
