// Package file loads the TOML configuration describing the cache root
// and the external thumbnailer tools available on this machine.
package file
