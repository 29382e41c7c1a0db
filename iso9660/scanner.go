package iso9660

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// pathContentSource is a ContentSource backed by a file on disk.
type pathContentSource struct{ path string }

// NewPathContentSource returns a ContentSource that opens path on demand.
func NewPathContentSource(path string) ContentSource { return pathContentSource{path: path} }

func (p pathContentSource) Open() (io.ReadCloser, error) { return os.Open(p.path) }

// ScanDirectory walks the host directory at root and builds the Directory
// tree a Volume's Root expects, with each regular file's Content backed by
// its on-disk path and DataLength read from its os.Stat size at scan time.
// Symlinks and non-regular files are skipped.
func ScanDirectory(root string) (*Directory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("statting %q: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", absRoot)
	}

	dir := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	if err := scanInto(absRoot, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

func scanInto(diskPath string, dir *Directory) error {
	osEntries, err := os.ReadDir(diskPath)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", diskPath, err)
	}
	sort.Slice(osEntries, func(i, j int) bool { return osEntries[i].Name() < osEntries[j].Name() })

	for _, osEntry := range osEntries {
		fullDiskPath := filepath.Join(diskPath, osEntry.Name())

		if osEntry.IsDir() {
			child := &Directory{FileSystemObject: FileSystemObject{Name: osEntry.Name()}}
			if err := scanInto(fullDiskPath, child); err != nil {
				return err
			}
			dir.Children = append(dir.Children, child)
			continue
		}

		info, err := osEntry.Info()
		if err != nil {
			return fmt.Errorf("statting %q: %w", fullDiskPath, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		dir.Children = append(dir.Children, &File{
			FileSystemObject: FileSystemObject{Name: osEntry.Name()},
			Content:          NewPathContentSource(fullDiskPath),
			DataLength:       uint32(info.Size()),
		})
	}
	return nil
}
