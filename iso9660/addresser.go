package iso9660

// Addresser maps between absolute byte offsets and logical sectors on top
// of a ByteWriter. Logical block size equals logical sector size in this
// revision, so LBA and sector are the same number.
type Addresser struct {
	bw *ByteWriter
}

// NewAddresser wraps bw.
func NewAddresser(bw *ByteWriter) *Addresser { return &Addresser{bw: bw} }

// CurrentSector returns the sector containing the current position.
func (a *Addresser) CurrentSector() uint32 {
	return uint32(a.bw.Position() / SectorSize)
}

// AtStartOfSector reports whether the current position is exactly the
// first byte of a sector.
func (a *Addresser) AtStartOfSector() bool {
	return a.bw.Position()%SectorSize == 0
}

// SeekToSector moves to the first byte of the given sector.
func (a *Addresser) SeekToSector(sector uint32) error {
	return a.bw.SeekTo(int64(sector) * SectorSize)
}

// SeekToNextSector rounds the position up to the start of the next sector.
// If already at a sector boundary, it does not move.
func (a *Addresser) SeekToNextSector() error {
	if a.AtStartOfSector() {
		return nil
	}
	next := (a.bw.Position()/SectorSize + 1) * SectorSize
	return a.bw.SeekTo(next)
}

// PreservingLocation runs action with the writer at its current position,
// then restores that position whether action succeeds or fails. This is
// the idiom the two-phase allocation/emission design relies on: reserve a
// sector for a volume descriptor, lay out everything downstream, then jump
// back to fill in the descriptor.
func (a *Addresser) PreservingLocation(action func() error) error {
	saved := a.bw.Position()
	err := action()
	if seekErr := a.bw.SeekTo(saved); seekErr != nil {
		if err == nil {
			return seekErr
		}
	}
	return err
}

func ceilDivSectors(byteLen uint32) uint32 {
	if byteLen == 0 {
		return 0
	}
	return (byteLen + SectorSize - 1) / SectorSize
}
