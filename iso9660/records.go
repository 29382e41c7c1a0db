package iso9660

import (
	"io"
	"time"
)

// fileFlags derives the Directory Record FileFlags byte for a model entry.
// Bits 5-6 are reserved and always zero.
func fileFlags(o *FileSystemObject, isDir bool) byte {
	var f byte
	if o.Hidden {
		f |= 1 << 0
	}
	if isDir {
		f |= 1 << 1
	}
	if o.AssociatedFile {
		f |= 1 << 2
	}
	if o.Record {
		f |= 1 << 3
	}
	if o.Protection {
		f |= 1 << 4
	}
	if o.MultiExtent {
		f |= 1 << 7
	}
	return f
}

// writeDirectoryRecord writes one Directory Record: the 33-byte fixed part,
// the identifier, and the trailing pad byte recordByteLen implies. identifier
// is either the special single-byte "." (0x00) or ".." (0x01) marker, or a
// real d-characters+separators name, validated again here via
// WriteFileIdentifier as a last line of defense against a mis-canonicalized
// MappedIdentifier reaching emission.
func writeDirectoryRecord(bw *ByteWriter, entity string, identifier []byte, extentSector, dataLength uint32, flags byte, recTime time.Time, gmtOffset int, volSeq uint16) error {
	identLen := len(identifier)
	recLen := recordByteLen(identLen)
	if err := bw.WriteU8(uint8(recLen)); err != nil {
		return err
	}
	if err := bw.WriteU8(0); err != nil { // extended attribute record length
		return err
	}
	if err := bw.WriteU32Both(extentSector); err != nil {
		return err
	}
	if err := bw.WriteU32Both(dataLength); err != nil {
		return err
	}
	if err := bw.WriteRecordTimestamp(recTime, gmtOffset); err != nil {
		return err
	}
	if err := bw.WriteU8(flags); err != nil {
		return err
	}
	if err := bw.WriteU8(0); err != nil { // file unit size
		return err
	}
	if err := bw.WriteU8(0); err != nil { // interleave gap size
		return err
	}
	if err := bw.WriteU16Both(volSeq); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(identLen)); err != nil {
		return err
	}
	if identLen == 1 && (identifier[0] == 0x00 || identifier[0] == 0x01) {
		if err := bw.WriteBytes(identifier); err != nil {
			return err
		}
	} else {
		if err := bw.WriteFileIdentifier(entity, string(identifier)); err != nil {
			return err
		}
	}
	if identLen%2 == 0 {
		return bw.WriteU8(0)
	}
	return nil
}

// emitDirectoryListing writes dir's own extent: the "." and ".." records
// followed by each sorted child's record, applying the same sector-
// non-crossing packing the allocator measured when reserving dir's extent.
func emitDirectoryListing(bw *ByteWriter, addr *Addresser, alloc *Allocator, dir, parent *Directory, volSeq uint16, gmtOffset int, defaultTime time.Time) error {
	loc, ok := alloc.DirLoc(dir)
	if !ok {
		return newBuilderStateError(entryLabel(dir, "."), "directory has no allocated extent")
	}
	parentDir := parent
	if parentDir == nil {
		parentDir = dir
	}
	parentLoc, ok := alloc.DirLoc(parentDir)
	if !ok {
		return newBuilderStateError(entryLabel(dir, ".."), "parent directory has no allocated extent")
	}

	if err := addr.SeekToSector(loc.ExtentSector); err != nil {
		return err
	}
	start := bw.Position()

	children := sortedChildren(dir)
	lens := directoryRecordLens(dir)
	offsets, _ := packRecords(lens)

	write := func(idx int, entity string, identifier []byte, extentSector, dataLength uint32, flags byte, rt time.Time) error {
		gap := int64(offsets[idx]) - (bw.Position() - start)
		if gap > 0 {
			if err := bw.WriteZeros(int(gap)); err != nil {
				return err
			}
		}
		return writeDirectoryRecord(bw, entity, identifier, extentSector, dataLength, flags, rt, gmtOffset, volSeq)
	}

	if err := write(0, entryLabel(dir, "."), []byte{0x00}, loc.ExtentSector, loc.DataLength, 0x02, defaultTime); err != nil {
		return err
	}
	if err := write(1, entryLabel(dir, ".."), []byte{0x01}, parentLoc.ExtentSector, parentLoc.DataLength, 0x02, defaultTime); err != nil {
		return err
	}

	for i, c := range children {
		base := c.base()
		var extentSector, dataLength uint32
		switch e := c.(type) {
		case *Directory:
			cl, ok := alloc.DirLoc(e)
			if !ok {
				return newBuilderStateError(entryLabel(dir, base.Name), "child directory has no allocated extent")
			}
			extentSector, dataLength = cl.ExtentSector, cl.DataLength
		case *File:
			fl, ok := alloc.FileLoc(e)
			if !ok {
				return newBuilderStateError(entryLabel(dir, base.Name), "child file has no allocated extent")
			}
			extentSector, dataLength = fl.ExtentSector, e.DataLength
		}
		rt := defaultTime
		if base.RecordingTime != nil {
			rt = *base.RecordingTime
		}
		if err := write(2+i, entryLabel(dir, base.Name), base.MappedIdentifier, extentSector, dataLength, fileFlags(base, c.isDirectory()), rt); err != nil {
			return err
		}
	}

	return addr.SeekToSector(loc.ExtentSector + loc.SectorCount)
}

// emitFileContent streams f's content into its reserved extent, failing
// with ContentRace if the source yields more bytes than DataLength.
func emitFileContent(bw *ByteWriter, addr *Addresser, alloc *Allocator, f *File) error {
	loc, ok := alloc.FileLoc(f)
	if !ok {
		return newBuilderStateError(f.Name, "file has no allocated extent")
	}
	if loc.SectorCount == 0 {
		return nil
	}
	if err := addr.SeekToSector(loc.ExtentSector); err != nil {
		return err
	}
	if f.Content == nil {
		return addr.SeekToSector(loc.ExtentSector + loc.SectorCount)
	}
	r, err := f.Content.Open()
	if err != nil {
		return wrapErr(IoFailure, f.Name, err, "opening content source failed")
	}
	defer r.Close()

	limited := io.LimitReader(r, int64(f.DataLength)+1)
	var written uint32
	buf := make([]byte, 32*1024)
	for {
		n, rerr := limited.Read(buf)
		if n > 0 {
			if uint64(written)+uint64(n) > uint64(f.DataLength) {
				return newContentRace(f.Name)
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
			return wrapErr(IoFailure, f.Name, rerr, "reading content source failed")
		}
	}

	return addr.SeekToSector(loc.ExtentSector + loc.SectorCount)
}

// emitVolumeTree writes dir's listing, recurses into child directories
// depth-first, then streams each child file's content — mirroring the
// order the allocator used to reserve extents.
func emitVolumeTree(bw *ByteWriter, addr *Addresser, alloc *Allocator, dir, parent *Directory, volSeq uint16, gmtOffset int, defaultTime time.Time) error {
	if err := emitDirectoryListing(bw, addr, alloc, dir, parent, volSeq, gmtOffset, defaultTime); err != nil {
		return err
	}
	children := sortedChildren(dir)
	for _, c := range children {
		if cd, ok := c.(*Directory); ok {
			if err := emitVolumeTree(bw, addr, alloc, cd, dir, volSeq, gmtOffset, defaultTime); err != nil {
				return err
			}
		}
	}
	for _, c := range children {
		if f, ok := c.(*File); ok {
			if err := emitFileContent(bw, addr, alloc, f); err != nil {
				return err
			}
		}
	}
	return nil
}
