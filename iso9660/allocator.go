package iso9660

import (
	"io"
)

// DirLoc is a directory's allocated extent: where its listing starts and
// how many sectors it occupies.
type DirLoc struct {
	ExtentSector uint32
	SectorCount  uint32
	DataLength   uint32
}

// FileLoc is a file's (or a boot entry's payload's) allocated extent.
type FileLoc struct {
	ExtentSector uint32
	SectorCount  uint32
}

// PathTableLoc is a volume's two path table extents: Type L (little-endian)
// and Type M (big-endian), both the same declared size.
type PathTableLoc struct {
	SizeBytes   uint32
	TypeLSector uint32
	TypeMSector uint32
}

// Allocator is the first of the two build passes: it walks the model and
// reserves sectors for every structure, without writing any bytes, so the
// second pass (the emitter) can reference locations that are already fixed
// by the time it needs to write a field that points forward or backward.
type Allocator struct {
	addr *Addresser

	volumeDescSectors map[*Volume]uint32
	dirLocs           map[*Directory]*DirLoc
	fileLocs          map[*File]*FileLoc
	pathTableLocs     map[*Volume]*PathTableLoc

	bootRecordSector uint32
	hasBootRecord    bool
	bootCatalogSector uint32
	hasBootCatalog    bool
	bootEntryLocs     map[*BootCatalogEntry]*FileLoc
	bootEntryLens     map[*BootCatalogEntry]uint32
}

// NewAllocator creates an Allocator writing through addr.
func NewAllocator(addr *Addresser) *Allocator {
	return &Allocator{
		addr:              addr,
		volumeDescSectors: make(map[*Volume]uint32),
		dirLocs:           make(map[*Directory]*DirLoc),
		fileLocs:          make(map[*File]*FileLoc),
		pathTableLocs:     make(map[*Volume]*PathTableLoc),
		bootEntryLocs:     make(map[*BootCatalogEntry]*FileLoc),
		bootEntryLens:     make(map[*BootCatalogEntry]uint32),
	}
}

// reserveSectors reserves the next n sectors starting at the writer's
// current position, which must already sit on a sector boundary, and
// advances past them.
func (a *Allocator) reserveSectors(n uint32) (uint32, error) {
	if !a.addr.AtStartOfSector() {
		return 0, newBuilderStateError("Allocator", "writer is not at a sector boundary")
	}
	sector := a.addr.CurrentSector()
	if err := a.addr.SeekToSector(sector + n); err != nil {
		return 0, err
	}
	return sector, nil
}

// ReserveSector reserves exactly one sector, for a single volume descriptor
// or the Volume Descriptor Set Terminator.
func (a *Allocator) ReserveSector() (uint32, error) {
	return a.reserveSectors(1)
}

// AllocateVolumeDescriptor reserves the sector v's Primary or Supplementary
// Volume Descriptor will occupy.
func (a *Allocator) AllocateVolumeDescriptor(v *Volume) (uint32, error) {
	sector, err := a.ReserveSector()
	if err != nil {
		return 0, err
	}
	a.volumeDescSectors[v] = sector
	return sector, nil
}

// VolumeDescriptorSector returns v's previously allocated descriptor sector.
func (a *Allocator) VolumeDescriptorSector(v *Volume) (uint32, bool) {
	s, ok := a.volumeDescSectors[v]
	return s, ok
}

// AllocateBootRecord reserves the sector the El Torito Boot Record volume
// descriptor occupies.
func (a *Allocator) AllocateBootRecord() (uint32, error) {
	sector, err := a.ReserveSector()
	if err != nil {
		return 0, err
	}
	a.bootRecordSector = sector
	a.hasBootRecord = true
	return sector, nil
}

// BootRecordSector returns the previously allocated boot record sector.
func (a *Allocator) BootRecordSector() (uint32, bool) {
	return a.bootRecordSector, a.hasBootRecord
}

// AllocateBootCatalog reserves the single sector the El Torito boot catalog
// (validation entry, initial entry, and any additional sections) occupies.
func (a *Allocator) AllocateBootCatalog() (uint32, error) {
	sector, err := a.ReserveSector()
	if err != nil {
		return 0, err
	}
	a.bootCatalogSector = sector
	a.hasBootCatalog = true
	return sector, nil
}

// BootCatalogSector returns the previously allocated boot catalog sector.
func (a *Allocator) BootCatalogSector() (uint32, bool) {
	return a.bootCatalogSector, a.hasBootCatalog
}

// AllocateBootEntryData measures e's Data source by reading it once, then
// reserves the sectors its content needs. The measured length is recorded
// so the emitter can detect a source that changed size between passes.
func (a *Allocator) AllocateBootEntryData(e *BootCatalogEntry) error {
	if e.Data == nil {
		return newModelInconsistent("BootCatalogEntry", "boot entry has no Data source")
	}
	n, err := measureContentSource("BootCatalogEntry.Data", e.Data)
	if err != nil {
		return err
	}
	sector, err := a.reserveSectors(ceilDivSectors(n))
	if err != nil {
		return err
	}
	a.bootEntryLocs[e] = &FileLoc{ExtentSector: sector, SectorCount: ceilDivSectors(n)}
	a.bootEntryLens[e] = n
	return nil
}

// BootEntryLoc returns e's previously allocated extent.
func (a *Allocator) BootEntryLoc(e *BootCatalogEntry) (*FileLoc, bool) {
	l, ok := a.bootEntryLocs[e]
	return l, ok
}

// BootEntryLength returns e's measured content length in bytes.
func (a *Allocator) BootEntryLength(e *BootCatalogEntry) (uint32, bool) {
	l, ok := a.bootEntryLens[e]
	return l, ok
}

// AllocateDirectoryExtent reserves dir's own extent, then recurses: first
// into every child directory (each allocating its full subtree), then into
// every child file. This depth-first-directories-before-files order is
// what the layout driver relies on for a stable, sector-aligned packing.
func (a *Allocator) AllocateDirectoryExtent(dir *Directory) error {
	sectors := directoryExtentSectors(dir)
	sector, err := a.reserveSectors(sectors)
	if err != nil {
		return err
	}
	a.dirLocs[dir] = &DirLoc{ExtentSector: sector, SectorCount: sectors, DataLength: sectors * SectorSize}

	children := sortedChildren(dir)
	for _, c := range children {
		if cd, ok := c.(*Directory); ok {
			if err := a.AllocateDirectoryExtent(cd); err != nil {
				return err
			}
		}
	}
	for _, c := range children {
		if f, ok := c.(*File); ok {
			if err := a.AllocateFileExtent(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// DirLoc returns dir's previously allocated extent.
func (a *Allocator) DirLoc(dir *Directory) (*DirLoc, bool) {
	l, ok := a.dirLocs[dir]
	return l, ok
}

// AllocateFileExtent reserves f's extent from its declared DataLength. A
// zero-length file reserves no sector at all; its extent sector records as 0.
func (a *Allocator) AllocateFileExtent(f *File) error {
	if f.DataLength == 0 {
		a.fileLocs[f] = &FileLoc{ExtentSector: 0, SectorCount: 0}
		return nil
	}
	sectors := ceilDivSectors(f.DataLength)
	sector, err := a.reserveSectors(sectors)
	if err != nil {
		return err
	}
	a.fileLocs[f] = &FileLoc{ExtentSector: sector, SectorCount: sectors}
	return nil
}

// FileLoc returns f's previously allocated extent.
func (a *Allocator) FileLoc(f *File) (*FileLoc, bool) {
	l, ok := a.fileLocs[f]
	return l, ok
}

// AllocatePathTables reserves a volume's Type L and Type M path table
// extents, each sizeBytes long.
func (a *Allocator) AllocatePathTables(v *Volume, sizeBytes uint32) (*PathTableLoc, error) {
	sectors := ceilDivSectors(sizeBytes)
	lSector, err := a.reserveSectors(sectors)
	if err != nil {
		return nil, err
	}
	mSector, err := a.reserveSectors(sectors)
	if err != nil {
		return nil, err
	}
	loc := &PathTableLoc{SizeBytes: sizeBytes, TypeLSector: lSector, TypeMSector: mSector}
	a.pathTableLocs[v] = loc
	return loc, nil
}

// PathTableLoc returns v's previously allocated path table extents.
func (a *Allocator) PathTableLoc(v *Volume) (*PathTableLoc, bool) {
	l, ok := a.pathTableLocs[v]
	return l, ok
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// measureContentSource opens cs, reads it to completion to learn its byte
// length, and closes it. The same content is read again at emission time;
// a mismatch there is reported as ContentRace.
func measureContentSource(entity string, cs ContentSource) (uint32, error) {
	r, err := cs.Open()
	if err != nil {
		return 0, wrapErr(IoFailure, entity, err, "opening content source failed")
	}
	defer r.Close()
	var cw countingWriter
	if _, err := io.Copy(&cw, r); err != nil {
		return 0, wrapErr(IoFailure, entity, err, "reading content source failed")
	}
	if cw.n > int64(^uint32(0)) {
		return 0, newSizeOverflow(entity, "content length %d exceeds a 32-bit extent length", cw.n)
	}
	return uint32(cw.n), nil
}
