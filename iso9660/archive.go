package iso9660

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ulikunitz/xz"
)

// archiveContentSource holds one tar entry's bytes in memory. Unlike
// pathContentSource, an archive entry has no stable on-disk path to reopen
// at emission time, so its content is read once at scan time and buffered.
type archiveContentSource struct{ data []byte }

func (a archiveContentSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.data)), nil
}

// ScanTarXZ decompresses an xz-compressed tar stream from r and builds the
// Directory tree a Volume's Root expects, the same shape ScanDirectory
// produces from a host directory. Only regular files and directories are
// honored; other tar entry types are skipped.
func ScanTarXZ(r io.Reader) (*Directory, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xz stream: %w", err)
	}
	tr := tar.NewReader(xr)

	root := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}

		clean := path.Clean("/" + hdr.Name)
		dirPart, base := path.Split(clean)
		components := strings.Split(strings.Trim(dirPart, "/"), "/")
		parent := navigateToDir(root, components)

		if hdr.Typeflag == tar.TypeDir {
			navigateToDir(parent, []string{base})
			continue
		}
		if base == "" {
			continue
		}

		data := make([]byte, hdr.Size)
		if _, err := io.ReadFull(tr, data); err != nil {
			return nil, fmt.Errorf("reading content of %q: %w", hdr.Name, err)
		}
		parent.Children = append(parent.Children, &File{
			FileSystemObject: FileSystemObject{Name: base},
			Content:          archiveContentSource{data: data},
			DataLength:       uint32(len(data)),
		})
	}
	return root, nil
}

// navigateToDir walks components from dir, creating a Directory child for
// any component that does not already exist, and returns the final
// directory reached.
func navigateToDir(dir *Directory, components []string) *Directory {
	cur := dir
	for _, comp := range components {
		if comp == "" || comp == "." {
			continue
		}
		var next *Directory
		for _, c := range cur.Children {
			if cd, ok := c.(*Directory); ok && cd.Name == comp {
				next = cd
				break
			}
		}
		if next == nil {
			next = &Directory{FileSystemObject: FileSystemObject{Name: comp}}
			cur.Children = append(cur.Children, next)
		}
		cur = next
	}
	return cur
}
