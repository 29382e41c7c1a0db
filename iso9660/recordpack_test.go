package iso9660

import "testing"

func TestRecordByteLenParity(t *testing.T) {
	cases := []struct {
		identLen int
		want     int
	}{
		{0, 33 + 0 + 1}, // even -> padded
		{1, 33 + 1 + 0}, // odd -> no pad
		{2, 33 + 2 + 1},
		{7, 33 + 7 + 0},
	}
	for _, c := range cases {
		if got := recordByteLen(c.identLen); got != c.want {
			t.Errorf("recordByteLen(%d) = %d, want %d", c.identLen, got, c.want)
		}
		if got := recordByteLen(c.identLen); got%2 != 0 {
			t.Errorf("recordByteLen(%d) = %d is not even", c.identLen, got)
		}
	}
}

func TestPackRecordsNoSectorCrossing(t *testing.T) {
	// Construct lengths that would straddle a sector boundary if packed
	// tightly: SectorSize=2048, so three records of 700 bytes each put the
	// third one crossing 2048 if packed at 0, 700, 1400 (1400+700=2100>2048).
	lens := []int{700, 700, 700}
	offsets, total := packRecords(lens)

	if offsets[0] != 0 || offsets[1] != 700 {
		t.Fatalf("unexpected early offsets: %v", offsets)
	}
	if offsets[2] != SectorSize {
		t.Errorf("third record should have been pushed to next sector boundary, got offset %d", offsets[2])
	}
	if total != SectorSize+700 {
		t.Errorf("total = %d, want %d", total, SectorSize+700)
	}

	// Every record must end within the sector it starts in.
	for i, off := range offsets {
		start := off / SectorSize
		end := (off + lens[i] - 1) / SectorSize
		if start != end {
			t.Errorf("record %d spans sectors %d..%d", i, start, end)
		}
	}
}

func TestPackRecordsFitsWithoutPadding(t *testing.T) {
	lens := []int{100, 100, 100}
	offsets, total := packRecords(lens)
	want := []int{0, 100, 200}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offsets[%d] = %d, want %d", i, offsets[i], want[i])
		}
	}
	if total != 300 {
		t.Errorf("total = %d, want 300", total)
	}
}

func TestAllocateFileExtentZeroLength(t *testing.T) {
	var w memWriteSeeker
	bw, err := NewByteWriter(&w)
	if err != nil {
		t.Fatalf("NewByteWriter failed: %v", err)
	}
	addr := NewAddresser(bw)
	if err := addr.SeekToSector(5); err != nil {
		t.Fatalf("SeekToSector failed: %v", err)
	}
	alloc := NewAllocator(addr)

	f := &File{FileSystemObject: FileSystemObject{Name: "EMPTY"}, DataLength: 0}
	if err := alloc.AllocateFileExtent(f); err != nil {
		t.Fatalf("AllocateFileExtent failed: %v", err)
	}

	loc, ok := alloc.FileLoc(f)
	if !ok {
		t.Fatal("expected a recorded FileLoc for a zero-length file")
	}
	if loc.ExtentSector != 0 {
		t.Errorf("ExtentSector = %d, want 0 for a zero-length file", loc.ExtentSector)
	}
	if loc.SectorCount != 0 {
		t.Errorf("SectorCount = %d, want 0 for a zero-length file", loc.SectorCount)
	}
	if addr.CurrentSector() != 5 {
		t.Errorf("a zero-length file extent advanced the write cursor to sector %d, want 5", addr.CurrentSector())
	}
}

func TestDirectoryExtentSectorsMinimumOne(t *testing.T) {
	empty := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	if got := directoryExtentSectors(empty); got != 1 {
		t.Errorf("an empty directory (just . and ..) should reserve 1 sector, got %d", got)
	}
}
