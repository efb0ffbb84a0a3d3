// Package domain defines the authentication and authorization domain models.
//
// It provides actor-based authentication with capability-based authorization.
// API keys authenticate using signed tokens or inline credentials and are
// authorized via a flat, statically declared capability catalog scoped per project.
package domain

// Capability is a named permission declared in the catalog.
// Capabilities are flat: no capability implies another. If an administrative
// key should satisfy narrower checks, the narrower capabilities are assigned
// explicitly when the key is provisioned.
type Capability string

const (
	// AssetsRead allows reading assets and running searches.
	AssetsRead Capability = "AssetsRead"

	// AssetsImport allows importing and reprocessing assets.
	AssetsImport Capability = "AssetsImport"

	// AssetsDelete allows removing assets.
	AssetsDelete Capability = "AssetsDelete"

	// JobsView allows viewing processing jobs and their tasks.
	JobsView Capability = "JobsView"

	// JobsEdit allows creating, retrying and cancelling processing jobs.
	JobsEdit Capability = "JobsEdit"

	// ProjectManage allows managing project-level settings.
	ProjectManage Capability = "ProjectManage"

	// ApiKeyManage allows provisioning and revoking API keys within a project.
	ApiKeyManage Capability = "ApiKeyManage"

	// SystemMonitor allows reading system health and usage information.
	SystemMonitor Capability = "SystemMonitor"
)

// CapabilityDescriptor pairs a capability name with its human-readable description.
type CapabilityDescriptor struct {
	Name        Capability `json:"name"`
	Description string     `json:"description"`
}

// catalog is the full, ordered capability catalog. The set is fixed at build
// time; projects cannot define their own capabilities.
var catalog = []CapabilityDescriptor{
	{AssetsRead, "Read access to assets and search"},
	{AssetsImport, "Import and reprocess assets"},
	{AssetsDelete, "Remove assets"},
	{JobsView, "View processing jobs and tasks"},
	{JobsEdit, "Create, retry and cancel processing jobs"},
	{ProjectManage, "Manage project settings"},
	{ApiKeyManage, "Provision and revoke API keys"},
	{SystemMonitor, "Read system health and usage"},
}

// catalogIndex supports O(1) membership checks.
var catalogIndex = func() map[Capability]struct{} {
	idx := make(map[Capability]struct{}, len(catalog))
	for _, d := range catalog {
		idx[d.Name] = struct{}{}
	}
	return idx
}()

// Catalog returns the capability catalog in declaration order.
// The returned slice is a copy; callers may not mutate the catalog.
func Catalog() []CapabilityDescriptor {
	out := make([]CapabilityDescriptor, len(catalog))
	copy(out, catalog)
	return out
}

// KnownCapability reports whether the capability is declared in the catalog.
func KnownCapability(c Capability) bool {
	_, ok := catalogIndex[c]
	return ok
}

// FilterKnown returns the capabilities that are declared in the catalog,
// preserving input order and dropping duplicates. Resolved actors always carry
// a subset of the catalog, regardless of what a stored record claims.
func FilterKnown(caps []Capability) []Capability {
	out := make([]Capability, 0, len(caps))
	seen := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		if _, dup := seen[c]; dup {
			continue
		}
		if KnownCapability(c) {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
