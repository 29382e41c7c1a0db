package iso9660

// pathTableNode is one row of a path table in breadth-first emission order:
// a directory plus the 1-based record number of its parent.
type pathTableNode struct {
	Dir                *Directory
	ParentRecordNumber uint16
}

// buildPathTableOrder walks root breadth-first, assigning each directory a
// 1-based record number as it is discovered. The root is always record 1
// with parent record 1, per §4.5.
func buildPathTableOrder(root *Directory) []*pathTableNode {
	order := []*pathTableNode{{Dir: root, ParentRecordNumber: 1}}
	recNum := map[*Directory]uint16{root: 1}
	queue := []*Directory{root}

	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		parentNum := recNum[d]
		for _, c := range sortedChildren(d) {
			cd, ok := c.(*Directory)
			if !ok {
				continue
			}
			order = append(order, &pathTableNode{Dir: cd, ParentRecordNumber: parentNum})
			recNum[cd] = uint16(len(order))
			queue = append(queue, cd)
		}
	}
	return order
}

func pathTableIdentifier(node *pathTableNode, root *Directory) []byte {
	if node.Dir == root {
		return []byte{0x00}
	}
	return node.Dir.MappedIdentifier
}

// pathTableRecordLen returns a Path Table Record's byte length: the 8-byte
// fixed part, the identifier, and a pad byte when identLen is odd (the
// opposite parity rule from Directory Records, since the fixed part here
// is already even).
func pathTableRecordLen(identLen int) int {
	pad := 0
	if identLen%2 == 1 {
		pad = 1
	}
	return ptRecFixedPartSize + identLen + pad
}

// pathTableSize returns order's total byte length.
func pathTableSize(order []*pathTableNode, root *Directory) uint32 {
	var total uint32
	for _, n := range order {
		total += uint32(pathTableRecordLen(len(pathTableIdentifier(n, root))))
	}
	return total
}

// emitPathTable writes order as one path table, in either little-endian
// (Type L) or big-endian (Type M) form, starting at the current position.
func emitPathTable(bw *ByteWriter, alloc *Allocator, order []*pathTableNode, root *Directory, bigEndian bool) error {
	writeU32 := bw.WriteU32LE
	writeU16 := bw.WriteU16LE
	if bigEndian {
		writeU32 = bw.WriteU32BE
		writeU16 = bw.WriteU16BE
	}

	for _, n := range order {
		identifier := pathTableIdentifier(n, root)
		loc, ok := alloc.DirLoc(n.Dir)
		if !ok {
			return newBuilderStateError(entryLabel(n.Dir, ""), "directory has no allocated extent")
		}
		if err := bw.WriteU8(uint8(len(identifier))); err != nil {
			return err
		}
		if err := bw.WriteU8(0); err != nil { // extended attribute record length
			return err
		}
		if err := writeU32(loc.ExtentSector); err != nil {
			return err
		}
		if err := writeU16(n.ParentRecordNumber); err != nil {
			return err
		}
		if len(identifier) == 1 && identifier[0] == 0x00 {
			if err := bw.WriteBytes(identifier); err != nil {
				return err
			}
		} else {
			if err := bw.WriteFileIdentifier(entryLabel(n.Dir, ""), string(identifier)); err != nil {
				return err
			}
		}
		if len(identifier)%2 == 1 {
			if err := bw.WriteU8(0); err != nil {
				return err
			}
		}
	}
	return nil
}
