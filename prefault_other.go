//go:build !linux

package sigpart

// prefaultRegion is a no-op on non-Linux platforms.
func prefaultRegion(data []byte) {}
