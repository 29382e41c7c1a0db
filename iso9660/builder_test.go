package iso9660

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// memWriteSeeker is a minimal in-memory io.WriteSeeker, standing in for the
// file the real builder writes to.
type memWriteSeeker struct {
	buf []byte
	pos int64
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	}
	m.pos = base + offset
	return m.pos, nil
}

type memContent struct{ data []byte }

func (c memContent) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(c.data)), nil
}

func TestBuildSingleFile(t *testing.T) {
	root := &Directory{
		FileSystemObject: FileSystemObject{Name: ""},
		Children: []Entry{
			&File{
				FileSystemObject: FileSystemObject{Name: "HELLO.TXT;1"},
				Content:          memContent{data: []byte("hi")},
				DataLength:       2,
			},
		},
	}
	img := &DiskImage{Primary: &Volume{VolumeIdentifier: "TEST", Root: root}}

	var w memWriteSeeker
	b := NewBuilder(img, nil)
	if err := b.Build(&w); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(w.buf)%SectorSize != 0 {
		t.Errorf("final image size %d is not a multiple of sector size", len(w.buf))
	}
	for i := 0; i < SystemAreaSectors*SectorSize; i++ {
		if w.buf[i] != 0 {
			t.Fatalf("system area byte %d is not zero", i)
		}
	}
	if string(w.buf[SystemAreaSectors*SectorSize+1:SystemAreaSectors*SectorSize+6]) != "CD001" {
		t.Errorf("PVD does not begin with the CD001 standard identifier")
	}
}

func TestBuildZeroLengthFileRecord(t *testing.T) {
	root := &Directory{
		FileSystemObject: FileSystemObject{Name: ""},
		Children: []Entry{
			&File{FileSystemObject: FileSystemObject{Name: "EMPTY.TXT;1"}, DataLength: 0},
		},
	}
	img := &DiskImage{Primary: &Volume{VolumeIdentifier: "TEST", Root: root}}

	var w memWriteSeeker
	if err := NewBuilder(img, nil).Build(&w); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Root Directory Record begins at byte 156 of the Primary Volume
	// Descriptor; its extent sector field lets us walk down into the
	// root directory's own extent without re-deriving layout elsewhere.
	pvdOff := SystemAreaSectors * SectorSize
	rootRecOff := pvdOff + 156
	rootExtent := binary.LittleEndian.Uint32(w.buf[rootRecOff+2 : rootRecOff+6])

	dirOff := int(rootExtent) * SectorSize
	dotLen := int(w.buf[dirOff])
	dotdotOff := dirOff + dotLen
	dotdotLen := int(w.buf[dotdotOff])
	childOff := dotdotOff + dotdotLen

	childExtent := binary.LittleEndian.Uint32(w.buf[childOff+2 : childOff+6])
	childDataLen := binary.LittleEndian.Uint32(w.buf[childOff+10 : childOff+14])
	if childExtent != 0 {
		t.Errorf("zero-length file's on-disk extent sector = %d, want 0", childExtent)
	}
	if childDataLen != 0 {
		t.Errorf("zero-length file's on-disk data length = %d, want 0", childDataLen)
	}
}

func TestBuildRejectsUnsupportedMode(t *testing.T) {
	root := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	img := &DiskImage{Primary: &Volume{VolumeIdentifier: "TEST", Root: root}}
	opts := DefaultOptions()
	opts.Mode = Mode2Form1

	var w memWriteSeeker
	err := NewBuilder(img, opts).Build(&w)
	if err == nil {
		t.Fatal("expected an Unsupported error for Mode2Form1")
	}
	if be, ok := err.(*BuildError); !ok || be.Kind != Unsupported {
		t.Errorf("expected Unsupported, got %v", err)
	}
}

func TestBuildElToritoNoEmulation(t *testing.T) {
	root := &Directory{FileSystemObject: FileSystemObject{Name: ""}}
	bootImage := make([]byte, SectorSize)
	for i := range bootImage {
		bootImage[i] = byte(i)
	}

	img := &DiskImage{
		Primary: &Volume{VolumeIdentifier: "TEST", Root: root},
		Boot: &BootCatalog{
			PlatformId: BootPlatformX86,
			IdString:   "isoforge",
			InitialEntry: &BootCatalogEntry{
				Bootable:    true,
				MediaType:   BootMediaNoEmulation,
				SectorCount: 1,
				Data:        memContent{data: bootImage},
			},
		},
	}

	var w memWriteSeeker
	if err := NewBuilder(img, nil).Build(&w); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	bootRecordOff := (SystemAreaSectors + 1) * SectorSize
	if w.buf[bootRecordOff] != 0 {
		t.Errorf("boot record type byte = %d, want 0", w.buf[bootRecordOff])
	}
	if string(w.buf[bootRecordOff+1:bootRecordOff+6]) != "CD001" {
		t.Errorf("boot record missing CD001 identifier")
	}
	if !bytes.Contains(w.buf[bootRecordOff+7:bootRecordOff+7+64], []byte(elToritoSystemIdentifier)) {
		t.Errorf("boot record missing El Torito system identifier")
	}

	catSector := binary.LittleEndian.Uint32(w.buf[bootRecordOff+7+64 : bootRecordOff+7+64+4])
	catOff := int(catSector) * SectorSize
	validation := w.buf[catOff : catOff+32]
	if validation[0] != 0x01 {
		t.Errorf("validation entry indicator = %#x, want 0x01", validation[0])
	}
	if validation[30] != 0x55 || validation[31] != 0xAA {
		t.Errorf("validation entry does not end in 0x55 0xAA")
	}

	var sum uint32
	for i := 0; i < 32; i += 2 {
		sum += uint32(binary.LittleEndian.Uint16(validation[i : i+2]))
	}
	if sum&0xFFFF != 0 {
		t.Errorf("validation entry word sum = %#x, want 0 mod 0x10000", sum&0xFFFF)
	}

	initial := w.buf[catOff+32 : catOff+64]
	if initial[0] != 0x88 {
		t.Errorf("initial entry bootable byte = %#x, want 0x88", initial[0])
	}
}
