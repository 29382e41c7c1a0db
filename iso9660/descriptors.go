package iso9660

import "time"

// pvdBodyPad is the zero-filled remainder of a Primary/Supplementary
// Volume Descriptor's 2041-byte body after every named field: the
// Application Use (512) and Reserved for Future Standardization (653)
// areas, neither of which this builder populates.
const pvdBodyPad = 2041 - 876

func writeVolumeDescriptorHeader(bw *ByteWriter, vdType byte) error {
	if err := bw.WriteU8(vdType); err != nil {
		return err
	}
	if err := bw.WriteBytes([]byte(standardIdentifier)); err != nil {
		return err
	}
	return bw.WriteU8(1) // version
}

// emitVolume lays out and writes v's directory tree, path tables, and
// (after jumping back to the sector AllocateVolumeDescriptor reserved)
// its own volume descriptor, restoring position afterward.
func emitVolume(bw *ByteWriter, addr *Addresser, alloc *Allocator, v *Volume, vdType byte, volumeStartSector uint32, opts *BuildOptions, defaultTime time.Time) error {
	if err := alloc.AllocateDirectoryExtent(v.Root); err != nil {
		return err
	}

	gmtOffset := v.GMTOffsetMinutes
	if gmtOffset == 0 {
		gmtOffset = opts.GMTOffsetMinutes
	}

	if err := emitVolumeTree(bw, addr, alloc, v.Root, nil, v.VolumeSequenceNumber, gmtOffset, defaultTime); err != nil {
		return err
	}
	if err := addr.SeekToNextSector(); err != nil {
		return err
	}

	order := buildPathTableOrder(v.Root)
	ptSize := pathTableSize(order, v.Root)
	ptLoc, err := alloc.AllocatePathTables(v, ptSize)
	if err != nil {
		return err
	}
	ptSectors := ceilDivSectors(ptSize)

	if err := addr.SeekToSector(ptLoc.TypeLSector); err != nil {
		return err
	}
	if err := emitPathTable(bw, alloc, order, v.Root, false); err != nil {
		return err
	}
	if err := addr.SeekToSector(ptLoc.TypeMSector); err != nil {
		return err
	}
	if err := emitPathTable(bw, alloc, order, v.Root, true); err != nil {
		return err
	}
	if err := addr.SeekToSector(ptLoc.TypeMSector + ptSectors); err != nil {
		return err
	}

	logicalBlockCount := addr.CurrentSector() - volumeStartSector

	return addr.PreservingLocation(func() error {
		vdSector, ok := alloc.VolumeDescriptorSector(v)
		if !ok {
			return newBuilderStateError(v.VolumeIdentifier, "volume descriptor was never allocated")
		}
		if err := addr.SeekToSector(vdSector); err != nil {
			return err
		}
		return writeVolumeDescriptorBody(bw, alloc, v, vdType, logicalBlockCount, ptLoc, gmtOffset, defaultTime)
	})
}

func writeVolumeDescriptorBody(bw *ByteWriter, alloc *Allocator, v *Volume, vdType byte, logicalBlockCount uint32, ptLoc *PathTableLoc, gmtOffset int, defaultTime time.Time) error {
	if err := writeVolumeDescriptorHeader(bw, vdType); err != nil {
		return err
	}

	if err := bw.WriteU8(0); err != nil { // reserved
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.SystemIdentifier, 32, ACharacters, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.VolumeIdentifier, 32, DCharacters, ' '); err != nil {
		return err
	}
	if err := bw.WriteZeros(8); err != nil {
		return err
	}
	if err := bw.WriteU32Both(logicalBlockCount); err != nil {
		return err
	}
	if err := bw.WriteZeros(32); err != nil {
		return err
	}
	if err := bw.WriteU16Both(v.VolumeSetSize); err != nil {
		return err
	}
	if err := bw.WriteU16Both(v.VolumeSequenceNumber); err != nil {
		return err
	}
	if err := bw.WriteU16Both(v.LogicalBlockSize); err != nil {
		return err
	}

	ptSizeField := ceilDivSectors(ptLoc.SizeBytes) * SectorSize
	if err := bw.WriteU32Both(ptSizeField); err != nil {
		return err
	}
	if err := bw.WriteU32LE(ptLoc.TypeLSector); err != nil {
		return err
	}
	if err := bw.WriteZeros(4); err != nil {
		return err
	}
	if err := bw.WriteU32BE(ptLoc.TypeMSector); err != nil {
		return err
	}
	if err := bw.WriteZeros(4); err != nil {
		return err
	}

	rootLoc, ok := alloc.DirLoc(v.Root)
	if !ok {
		return newBuilderStateError(v.VolumeIdentifier, "root directory has no allocated extent")
	}
	if err := writeDirectoryRecord(bw, v.VolumeIdentifier, []byte{0x00}, rootLoc.ExtentSector, rootLoc.DataLength, 0x02, defaultTime, gmtOffset, v.VolumeSequenceNumber); err != nil {
		return err
	}

	if err := bw.WritePaddedString(v.VolumeIdentifier, v.SetIdentifier, 128, DCharacters, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.Publisher, 128, ACharacters, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.DataPreparer, 128, ACharacters, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.Application, 128, ACharacters, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.CopyrightFile, 37, DSeparators, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.AbstractFile, 37, DSeparators, ' '); err != nil {
		return err
	}
	if err := bw.WritePaddedString(v.VolumeIdentifier, v.BibliographicFile, 37, DSeparators, ' '); err != nil {
		return err
	}

	if err := bw.WriteVolumeTimestamp(v.CreationDateTime, gmtOffset); err != nil {
		return err
	}
	if err := bw.WriteVolumeTimestamp(v.ModificationDateTime, gmtOffset); err != nil {
		return err
	}
	if err := bw.WriteVolumeTimestamp(v.ExpirationDateTime, gmtOffset); err != nil {
		return err
	}
	if err := bw.WriteVolumeTimestamp(v.EffectiveDateTime, gmtOffset); err != nil {
		return err
	}

	if err := bw.WriteU8(1); err != nil { // file structure version
		return err
	}
	if err := bw.WriteU8(0); err != nil { // reserved
		return err
	}
	return bw.WriteZeros(pvdBodyPad)
}

// emitTerminator writes a Volume Descriptor Set Terminator at the current
// (sector-aligned) position.
func emitTerminator(bw *ByteWriter) error {
	if err := writeVolumeDescriptorHeader(bw, vdTypeTerminator); err != nil {
		return err
	}
	return bw.WriteZeros(SectorSize - 7)
}

// emitBootRecord writes the El Torito Boot Record volume descriptor,
// pointing at bootCatalogSector.
func emitBootRecord(bw *ByteWriter, bootCatalogSector uint32) error {
	if err := writeVolumeDescriptorHeader(bw, vdTypeBootRecord); err != nil {
		return err
	}
	idBytes := make([]byte, 64)
	copy(idBytes, elToritoSystemIdentifier)
	if err := bw.WriteBytes(idBytes); err != nil {
		return err
	}
	if err := bw.WriteU32LE(bootCatalogSector); err != nil {
		return err
	}
	return bw.WriteZeros(2048 - 7 - 64 - 4)
}
