// Package cache provides content-addressed caching for layout results and
// rendered artifacts.
//
// Two axes are pluggable: the [Cache] backend (file, Redis, null) and the
// [Keyer] that derives stable keys from graph content and layout options.
// Keys are content hashes, so a cached layout is valid forever for the
// exact graph+options pair that produced it; TTLs exist only to bound
// storage growth.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type. Entries are content-addressed, so these
// bound storage, not staleness.
const (
	// TTLLayout applies to computed layout results.
	TTLLayout = 30 * 24 * time.Hour

	// TTLArtifact applies to rendered outputs (SVG, PNG, DOT).
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with per-entry TTL.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	// A miss is (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the layout parameters that affect cached results.
// Any field change must produce a different key.
type LayoutKeyOpts struct {
	Flow             string  `json:"flow"`
	Gap              float64 `json:"gap"`
	Padding          float64 `json:"padding"`
	GridUnit         float64 `json:"grid_unit"`
	MinSize          float64 `json:"min_size"`
	LooseIterations  int     `json:"loose_iterations"`
	StrictIterations int     `json:"strict_iterations"`
	Seed             uint64  `json:"seed"`
}

// ArtifactKeyOpts are the render parameters that affect cached artifacts.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer derives cache keys. Implementations must be deterministic: the
// same inputs always yield the same key.
type Keyer interface {
	// LayoutKey keys a layout result by graph content hash and options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by layout content hash and
	// render options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
