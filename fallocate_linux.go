//go:build linux

package sigpart

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a block file before it is mapped,
// so a full disk fails here instead of raising SIGBUS during the copy.
func fallocateFile(file *os.File, size int64) error {
	if err := unix.Fallocate(int(file.Fd()), 0, 0, size); err != nil {
		// Filesystems without fallocate (NFS, some overlays) still get the size
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// Fallocate reserves blocks but leaves the size unchanged
	return unix.Ftruncate(int(file.Fd()), size)
}
