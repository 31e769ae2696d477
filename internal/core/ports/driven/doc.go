// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the cache engine to function:
//
//   - Store: cache layout, staging and atomic publication of artifacts
//   - MetadataCodec: embedded key/value metadata in artifact files
//   - Thumbnailer: a single generation backend
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or thumbnailer package
package driven
