// Package thumbnailers provides the generation backend registry and MIME
// detection for the thumbnail cache. Concrete backends live in
// subpackages and implement the driven.Thumbnailer interface.
//
// The registry is an explicit priority-ordered list: order encodes
// preference (a native in-process decoder before slower external tools)
// and is never reordered at runtime except by category filtering.
package thumbnailers
