package iso9660

import "testing"

func level1Cfg() NameConfig {
	return NameConfig{
		Level: Level1,
		Flags: LimitDirectories | TruncateFileNames | UpperCaseFileNames | ResolveNameConflicts | StripIllegalDots,
	}
}

func TestDeriveFileNameDefaultVersion(t *testing.T) {
	parts, err := deriveFileName("/HELLO.TXT", "HELLO.TXT", level1Cfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := parts.full(parts.base); got != "HELLO.TXT;1" {
		t.Errorf("got %q, want HELLO.TXT;1", got)
	}
}

func TestDeriveFileNameLevel1TruncatesEachPortion(t *testing.T) {
	cfg := level1Cfg()
	parts, err := deriveFileName("/x", "VERYLONGNAME.VERYLONGEXT", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts.base) > 8 {
		t.Errorf("base %q exceeds 8 characters", parts.base)
	}
	if len(parts.ext) > 3 {
		t.Errorf("ext %q exceeds 3 characters", parts.ext)
	}
}

func TestDeriveFileNameRejectsSecondDotWithoutStripFlag(t *testing.T) {
	cfg := NameConfig{Level: Level1, Flags: TruncateFileNames}
	if _, err := deriveFileName("/x", "A.B.TXT", cfg); err == nil {
		t.Fatal("expected an error for a second '.' without StripIllegalDots")
	}
}

func TestDeriveFileNameInvalidVersionSuffix(t *testing.T) {
	cfg := level1Cfg()
	if _, err := deriveFileName("/x", "A.TXT;99999", cfg); err == nil {
		t.Fatal("expected an error for an out-of-range version suffix")
	}
}

func TestCanonicalizeVolumeNameConflictResolution(t *testing.T) {
	root := &Directory{
		FileSystemObject: FileSystemObject{Name: ""},
		Children: []Entry{
			&File{FileSystemObject: FileSystemObject{Name: "Readme.txt"}, DataLength: 1},
			&File{FileSystemObject: FileSystemObject{Name: "README.TXT"}, DataLength: 1},
		},
	}
	v := &Volume{VolumeIdentifier: "TEST", Root: root}
	opts := DefaultOptions()
	opts.Level = Level1

	if err := canonicalizeVolume(v, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := map[string]bool{}
	for _, c := range root.Children {
		names[c.base().MappedName] = true
	}
	if len(names) != 2 {
		t.Fatalf("expected two distinct mapped names, got %v", names)
	}
	if !names["README.TXT;1"] {
		t.Errorf("expected README.TXT;1 among mapped names, got %v", names)
	}
}

func TestCanonicalizeVolumeConflictFailsWithoutResolveFlag(t *testing.T) {
	root := &Directory{
		FileSystemObject: FileSystemObject{Name: ""},
		Children: []Entry{
			&File{FileSystemObject: FileSystemObject{Name: "SAME.TXT"}, DataLength: 1},
			&File{FileSystemObject: FileSystemObject{Name: "same.txt"}, DataLength: 1},
		},
	}
	v := &Volume{VolumeIdentifier: "TEST", Root: root}
	opts := DefaultOptions()
	opts.Level = Level1             // upper-casing applies only at Level 1
	opts.Flags = UpperCaseFileNames // no ResolveNameConflicts

	err := canonicalizeVolume(v, opts)
	if err == nil {
		t.Fatal("expected a ConflictUnresolvable error")
	}
	if be, ok := err.(*BuildError); !ok || be.Kind != ConflictUnresolvable {
		t.Errorf("expected ConflictUnresolvable, got %v", err)
	}
}

func TestCanonicalizeVolumeDepthExceeded(t *testing.T) {
	root := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	cur := root
	for i := 0; i < 9; i++ {
		child := &Directory{FileSystemObject: FileSystemObject{Name: "D"}}
		cur.Children = append(cur.Children, child)
		cur = child
	}
	v := &Volume{VolumeIdentifier: "TEST", Root: root}
	opts := DefaultOptions()

	err := canonicalizeVolume(v, opts)
	if err == nil {
		t.Fatal("expected a DepthExceeded error")
	}
	if be, ok := err.(*BuildError); !ok || be.Kind != DepthExceeded {
		t.Errorf("expected DepthExceeded, got %v", err)
	}
}

func TestAssociatedFileRequiresSibling(t *testing.T) {
	root := &Directory{
		FileSystemObject: FileSystemObject{Name: ""},
		Children: []Entry{
			&File{FileSystemObject: FileSystemObject{Name: "orphan", AssociatedFile: true}, DataLength: 1},
		},
	}
	v := &Volume{VolumeIdentifier: "TEST", Root: root}
	err := canonicalizeVolume(v, DefaultOptions())
	if err == nil {
		t.Fatal("expected a ModelInconsistent error for an associated file with no sibling")
	}
}
