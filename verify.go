package sigpart

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"

	sperrors "github.com/tamirms/sigpart/errors"
)

// Verify recomputes the checksum of every file listed in the manifest under
// root. It returns ErrChecksumFailed naming the first mismatching file, in
// path order, or the error from a missing or unreadable file. Files under
// blocks/ or a hamming<i>/ directory that the manifest does not list fail
// with ErrUnlistedFile, and a manifest without checksums fails with
// ErrNoChecksums.
func Verify(root string) error {
	m, err := ReadManifest(filepath.Join(root, ManifestName))
	if err != nil {
		return err
	}
	if len(m.Checksums) == 0 {
		return sperrors.ErrNoChecksums
	}

	paths := make([]string, 0, len(m.Checksums))
	for p := range m.Checksums {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return fmt.Errorf("%w: checksum path %q escapes the output root", sperrors.ErrInvalidManifest, p)
		}
		got, err := fileChecksum(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return err
		}
		if want := m.Checksums[p]; got != want {
			return fmt.Errorf("%w: %s: got %s, want %s", sperrors.ErrChecksumFailed, p, formatHash(got), formatHash(want))
		}
	}
	return checkUnlisted(root, m.Checksums)
}

// checkUnlisted walks the output directories under root and fails on the
// first file absent from sums.
func checkUnlisted(root string, sums map[string]uint64) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read output root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || !isOutputDir(e.Name()) {
			continue
		}
		err := filepath.WalkDir(filepath.Join(root, e.Name()), func(path string, de fs.DirEntry, err error) error {
			if err != nil || de.IsDir() {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if _, ok := sums[filepath.ToSlash(rel)]; !ok {
				return fmt.Errorf("%w: %s", sperrors.ErrUnlistedFile, filepath.ToSlash(rel))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func fileChecksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum64(), nil
}
