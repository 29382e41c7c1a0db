package iso9660

import (
	"encoding/binary"
	"io"
)

// writeValidationEntry fills entry[0:32] with the El Torito validation
// entry, leaving the checksum field (bytes 28-29) zero; the caller fills
// it in once the full 32 bytes are known.
func writeValidationEntry(entry []byte, platformId BootPlatform, idString string) {
	entry[0] = 0x01
	entry[1] = byte(platformId)
	// entry[2:4] reserved, zero.
	copy(entry[4:28], []byte(idString))
	// entry[28:30] checksum, filled by the caller.
	entry[30] = 0x55
	entry[31] = 0xAA
}

// checksumPlaceholder sums entry's sixteen little-endian u16 words and
// returns the value that, written into the checksum field, makes the sum
// of all sixteen words equal 0 mod 2^16.
func checksumPlaceholder(entry []byte) uint16 {
	var sum uint32
	for i := 0; i < 32; i += 2 {
		sum += uint32(binary.LittleEndian.Uint16(entry[i : i+2]))
	}
	return uint16((0x10000 - (sum & 0xFFFF)) & 0xFFFF)
}

// encodeBootEntry fills entry[0:32] with a default/initial or section
// entry: identical 32-byte layout, differing only in the boot indicator's
// meaning (there is no separate "section entry" shape in this revision).
func encodeBootEntry(entry []byte, e *BootCatalogEntry, extentSector uint32) error {
	if len(entry) != 32 {
		return newSizeOverflow("BootCatalogEntry", "entry buffer is not 32 bytes")
	}
	indicator := byte(0x00)
	if e.Bootable {
		indicator = 0x88
	}
	entry[0] = indicator
	entry[1] = byte(e.MediaType)
	loadSegment := e.LoadSegment
	if loadSegment == 0 {
		loadSegment = 0x07C0
	}
	binary.LittleEndian.PutUint16(entry[2:4], loadSegment)
	entry[4] = e.SystemType
	entry[5] = 0
	binary.LittleEndian.PutUint16(entry[6:8], e.SectorCount)
	binary.LittleEndian.PutUint32(entry[8:12], extentSector)
	copy(entry[12:32], e.VendorUniqueSelectionCriteria)
	return nil
}

// encodeSectionHeader fills header[0:32] with an additional boot section's
// header entry, mirroring the initial entry's shape per §4.5.
func encodeSectionHeader(header []byte, sec *BootSection, isLast bool) {
	indicator := byte(0x90)
	if isLast {
		indicator = 0x91
	}
	header[0] = indicator
	header[1] = byte(sec.PlatformId)
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(sec.Entries)))
	// header[4:32] (ID string) left zero: BootSection carries no ID field.
}

// emitBootCatalog assembles and writes the one-sector El Torito boot
// catalog: validation entry, initial entry, then any additional sections.
func emitBootCatalog(bw *ByteWriter, alloc *Allocator, bc *BootCatalog) error {
	if bc.InitialEntry == nil {
		return newModelInconsistent("BootCatalog", "boot catalog has no InitialEntry")
	}

	buf := make([]byte, SectorSize)
	writeValidationEntry(buf[0:32], bc.PlatformId, bc.IdString)

	initLoc, ok := alloc.BootEntryLoc(bc.InitialEntry)
	if !ok {
		return newBuilderStateError("BootCatalog.InitialEntry", "initial entry has no allocated extent")
	}
	if err := encodeBootEntry(buf[32:64], bc.InitialEntry, initLoc.ExtentSector); err != nil {
		return err
	}

	offset := 64
	for i, sec := range bc.Sections {
		if offset+32 > len(buf) {
			return newSizeOverflow("BootCatalog", "additional sections overflow a single sector")
		}
		encodeSectionHeader(buf[offset:offset+32], sec, i == len(bc.Sections)-1)
		offset += 32
		for _, e := range sec.Entries {
			if offset+32 > len(buf) {
				return newSizeOverflow("BootCatalog", "additional sections overflow a single sector")
			}
			eloc, ok := alloc.BootEntryLoc(e)
			if !ok {
				return newBuilderStateError("BootSection.Entries", "section entry has no allocated extent")
			}
			if err := encodeBootEntry(buf[offset:offset+32], e, eloc.ExtentSector); err != nil {
				return err
			}
			offset += 32
		}
	}

	checksum := checksumPlaceholder(buf[0:32])
	binary.LittleEndian.PutUint16(buf[28:30], checksum)

	return bw.WriteBytes(buf)
}

// emitBootEntryContent streams e's boot image into its reserved extent,
// the same scoped-release, length-checked discipline emitFileContent uses.
func emitBootEntryContent(bw *ByteWriter, addr *Addresser, alloc *Allocator, e *BootCatalogEntry) error {
	loc, ok := alloc.BootEntryLoc(e)
	if !ok {
		return newBuilderStateError("BootCatalogEntry", "entry has no allocated extent")
	}
	length, _ := alloc.BootEntryLength(e)
	if loc.SectorCount == 0 {
		return nil
	}
	if err := addr.SeekToSector(loc.ExtentSector); err != nil {
		return err
	}

	r, err := e.Data.Open()
	if err != nil {
		return wrapErr(IoFailure, "BootCatalogEntry.Data", err, "opening content source failed")
	}
	defer r.Close()

	limited := io.LimitReader(r, int64(length)+1)
	var written uint32
	buf := make([]byte, 32*1024)
	for {
		n, rerr := limited.Read(buf)
		if n > 0 {
			if uint64(written)+uint64(n) > uint64(length) {
				return newContentRace("BootCatalogEntry.Data")
			}
			if werr := bw.WriteBytes(buf[:n]); werr != nil {
				return werr
			}
			written += uint32(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return wrapErr(IoFailure, "BootCatalogEntry.Data", rerr, "reading content source failed")
		}
	}
	return addr.SeekToSector(loc.ExtentSector + loc.SectorCount)
}
