//go:build linux

package sigpart

import "golang.org/x/sys/unix"

// fadviseSequential hints that the signature file is read front to back.
// Best-effort: errors are ignored.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}
