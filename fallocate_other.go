//go:build !linux && !darwin

package sigpart

import "os"

// fallocateFile sets the block file size. Disk blocks may not be reserved
// on every filesystem.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
