package thumbnailers

import (
	"github.com/custodia-labs/thumbcache/internal/thumbnailers/command"
	"github.com/custodia-labs/thumbcache/internal/thumbnailers/native"
)

// Defaults builds the standard registry: the native in-process decoder
// first, then any configured external tools in declaration order. The
// native backend leads because it is cheaper than spawning a process.
func Defaults(descriptors ...command.Descriptor) *Registry {
	r := NewRegistry(native.New())
	for _, d := range descriptors {
		r.Register(command.New(d))
	}
	return r
}
