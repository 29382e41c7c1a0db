package iso9660

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/ulikunitz/xz"
)

func buildTarXZ(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header for %q: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar content for %q: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatalf("creating xz writer: %v", err)
	}
	if _, err := xw.Write(tarBuf.Bytes()); err != nil {
		t.Fatalf("writing xz stream: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("closing xz writer: %v", err)
	}
	return xzBuf.Bytes()
}

func TestScanTarXZ(t *testing.T) {
	data := buildTarXZ(t, map[string]string{
		"readme.txt":     "hello",
		"nested/sub.txt": "world",
	})

	root, err := ScanTarXZ(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ScanTarXZ failed: %v", err)
	}

	var findFile func(d *Directory, path []string) *File
	findFile = func(d *Directory, path []string) *File {
		for _, c := range d.Children {
			switch e := c.(type) {
			case *Directory:
				if e.Name == path[0] && len(path) > 1 {
					return findFile(e, path[1:])
				}
			case *File:
				if e.Name == path[0] && len(path) == 1 {
					return e
				}
			}
		}
		return nil
	}

	f := findFile(root, []string{"readme.txt"})
	if f == nil {
		t.Fatal("readme.txt not found in scanned tree")
	}
	r, err := f.Content.Open()
	if err != nil {
		t.Fatalf("opening content: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "hello" {
		t.Errorf("readme.txt content = %q, want %q", got, "hello")
	}

	nested := findFile(root, []string{"nested", "sub.txt"})
	if nested == nil {
		t.Fatal("nested/sub.txt not found in scanned tree")
	}
}
