package iso9660

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := ScanDirectory(root)
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}
	if len(dir.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(dir.Children))
	}

	var sawFile, sawDir bool
	for _, c := range dir.Children {
		switch e := c.(type) {
		case *File:
			if e.Name == "a.txt" {
				sawFile = true
				if e.DataLength != 3 {
					t.Errorf("a.txt DataLength = %d, want 3", e.DataLength)
				}
			}
		case *Directory:
			if e.Name == "sub" {
				sawDir = true
				if len(e.Children) != 1 {
					t.Errorf("sub should have 1 child, got %d", len(e.Children))
				}
			}
		}
	}
	if !sawFile || !sawDir {
		t.Fatalf("scan did not produce expected entries: sawFile=%v sawDir=%v", sawFile, sawDir)
	}
}

func TestScanDirectoryRejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "not-a-dir")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ScanDirectory(f); err == nil {
		t.Fatal("expected an error when scanning a non-directory path")
	}
}
