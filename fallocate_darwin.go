//go:build darwin

package sigpart

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a block file before it is mapped.
// On macOS, uses fcntl F_PREALLOCATE.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}
	if err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst); err != nil {
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// F_PREALLOCATE only reserves space
	return unix.Ftruncate(int(file.Fd()), size)
}
