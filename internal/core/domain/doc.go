// Package domain defines the core entities for the thumbnail cache.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source identity: URI normalisation and cache-key derivation
//   - SizeClass: the fixed set of thumbnail size tiers
//   - ThumbnailInfo: metadata embedded in a cached artifact
//   - Category: backend capability tags (image, video, document, misc)
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
