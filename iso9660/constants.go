package iso9660

const (
	// SectorSize is the logical sector size in bytes. This builder does not
	// support smaller logical blocks; LogicalBlockSize always equals this.
	SectorSize = 2048

	// SystemAreaSectors is the number of reserved, always-zero sectors at the
	// start of every image (ECMA-119 Section 6.2).
	SystemAreaSectors = 16

	// PrimaryVolumeDescriptorSector is where the PVD always lands: the first
	// sector after the system area.
	PrimaryVolumeDescriptorSector = SystemAreaSectors

	// vdTypePrimary identifies a Primary Volume Descriptor.
	vdTypePrimary byte = 1
	// vdTypeSupplementary identifies a Supplementary Volume Descriptor.
	vdTypeSupplementary byte = 2
	// vdTypeBootRecord identifies a Boot Record volume descriptor (El Torito).
	vdTypeBootRecord byte = 0
	// vdTypeTerminator identifies a Volume Descriptor Set Terminator.
	vdTypeTerminator byte = 255

	// drFixedPartSize is the size of a Directory Record excluding the
	// identifier and its padding (ECMA-119 Section 9.1).
	drFixedPartSize = 33
	// ptRecFixedPartSize is the size of a Path Table Record excluding the
	// identifier and its padding (ECMA-119 Section 9.4).
	ptRecFixedPartSize = 8

	// standardIdentifier is the 5-byte magic every volume descriptor carries.
	standardIdentifier = "CD001"

	// elToritoSystemIdentifier is the boot record's system identifier
	// string, written zero-padded into a 64-byte field.
	elToritoSystemIdentifier = "EL TORITO SPECIFICATION"

	// maxDirectoryDepth is the nesting cap enforced when LimitDirectories is set.
	maxDirectoryDepth = 8

	// maxPathLength is the absolute cap on a full path's byte length.
	maxPathLength = 255
)
