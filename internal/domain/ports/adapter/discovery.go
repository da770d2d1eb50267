package adapter

import "context"

// PathValidator rejects traversal attempts and paths outside the
// approved storage roots. Validate is pure: no I/O happens before a
// path is accepted.
type PathValidator interface {
	Validate(path string) error
}

// FileDiscoverer enumerates candidate audio files under a validated
// source. The returned order is stable and sorted so checkpoint
// comparisons are deterministic across runs.
type FileDiscoverer interface {
	Discover(ctx context.Context, source, pattern string) ([]string, error)
}

// ObjectLister lists keys of an object-store source (scheme://bucket/prefix).
type ObjectLister interface {
	List(ctx context.Context, source, pattern string) ([]string, error)
}
