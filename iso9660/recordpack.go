package iso9660

import "sort"

// recordByteLen returns the total byte length of a Directory Record whose
// File Identifier is identifierLen bytes long: the 33-byte fixed part, the
// identifier itself, and a single padding byte when identifierLen is even
// (ECMA-119 9.1.12 requires every record to end on an even byte count).
func recordByteLen(identifierLen int) int {
	pad := 0
	if identifierLen%2 == 0 {
		pad = 1
	}
	return drFixedPartSize + identifierLen + pad
}

// packRecords computes, for an ordered sequence of Directory Record byte
// lengths, the offset within the directory extent at which each record
// begins. A record that would straddle a sector boundary is instead moved
// to the start of the next sector, with the remainder of the current
// sector left as padding — the rule both the allocator (to reserve the
// right sector count) and the emitter (to place records identically) must
// apply the same way.
func packRecords(lens []int) (offsets []int, totalBytes int) {
	offsets = make([]int, len(lens))
	pos := 0
	for i, l := range lens {
		remaining := SectorSize - pos%SectorSize
		if l > remaining {
			pos += remaining
		}
		offsets[i] = pos
		pos += l
	}
	return offsets, pos
}

// sortedChildren returns dir's children in the directory-listing order
// used consistently by allocation and emission: lexicographic by
// MappedName, dir's own order of children otherwise preserved on ties. Requires canonicalizeVolume to have already populated MappedName.
func sortedChildren(dir *Directory) []Entry {
	out := make([]Entry, len(dir.Children))
	copy(out, dir.Children)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].base().MappedName < out[j].base().MappedName
	})
	return out
}

// directoryRecordLens returns the Directory Record byte lengths for dir's
// listing in emission order: self ("."), parent (".."), then each sorted
// child. This is the sequence packRecords measures and records.go writes.
func directoryRecordLens(dir *Directory) []int {
	children := sortedChildren(dir)
	lens := make([]int, 0, len(children)+2)
	lens = append(lens, recordByteLen(1)) // "."
	lens = append(lens, recordByteLen(1)) // ".."
	for _, c := range children {
		lens = append(lens, recordByteLen(len(c.base().MappedIdentifier)))
	}
	return lens
}

// directoryExtentSectors returns the number of sectors dir's own listing
// occupies, given its children already have MappedIdentifier populated.
func directoryExtentSectors(dir *Directory) uint32 {
	_, total := packRecords(directoryRecordLens(dir))
	return ceilDivSectors(uint32(total))
}
