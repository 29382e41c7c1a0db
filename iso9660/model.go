package iso9660

import (
	"io"
	"time"
)

// ContentSource is a handle/path to a File's content bytes. Open is called
// once per build, at emission time; the returned ReadCloser is read to
// completion and closed under a scoped-release discipline, whether or not
// the copy succeeds.
type ContentSource interface {
	Open() (io.ReadCloser, error)
}

// Entry is the sum type over the two FileSystemObject variants that can
// appear as a Directory's child: *Directory and *File.
type Entry interface {
	base() *FileSystemObject
	isDirectory() bool
}

// FileSystemObject holds the fields common to every entry in a volume's
// directory tree, before and after name canonicalisation.
type FileSystemObject struct {
	// Name is the source (host) name, as supplied by the caller.
	Name string

	// MappedName is the canonicalised on-disk identifier in text form,
	// populated by canonicalisation. Empty/untouched before that pass runs.
	MappedName string

	// MappedIdentifier is the ASCII byte form of MappedName, equal length.
	MappedIdentifier []byte

	// Hidden inverts the ISO "Existence" bit: true means the Hidden flag is
	// set in the entry's Directory Record.
	Hidden bool

	// AssociatedFile marks a parallel "EA-style" record that must share its
	// mapped name with a non-associated sibling of the same source Name.
	AssociatedFile bool

	Record     bool
	Protection bool

	// MultiExtent marks an entry whose data spans more than one extent. The
	// core does not split extents itself; this only controls the FileFlags
	// bit emitted for entries the caller has already arranged to describe
	// this way.
	MultiExtent bool

	// RecordingTime stamps the entry's Directory Record. If nil, the driver
	// reads the wall clock once per build and reuses the reading.
	RecordingTime *time.Time
}

func (o *FileSystemObject) base() *FileSystemObject { return o }

// Directory extends FileSystemObject with an ordered sequence of children.
// Order here is the caller's authoring order; emission additionally sorts
// children by MappedName within each directory listing (see DESIGN.md).
type Directory struct {
	FileSystemObject
	Children []Entry
}

func (d *Directory) isDirectory() bool { return true }

// File extends FileSystemObject with a content handle and its declared byte
// length. DataLength must equal what Content yields at write time; if the
// source grows during writing the build fails with ContentRace.
type File struct {
	FileSystemObject
	Content    ContentSource
	DataLength uint32
}

func (f *File) isDirectory() bool { return false }

// Volume holds volume-level metadata and a root Directory. A Volume without
// a Root is invalid (ModelInconsistent).
type Volume struct {
	SystemIdentifier   string
	VolumeIdentifier   string
	SetIdentifier      string
	Publisher          string
	DataPreparer       string
	Application        string
	CopyrightFile      string
	AbstractFile       string
	BibliographicFile  string

	CreationDateTime    *time.Time
	ModificationDateTime *time.Time
	ExpirationDateTime  *time.Time
	EffectiveDateTime   *time.Time

	VolumeSetSize        uint16
	VolumeSequenceNumber uint16
	LogicalBlockSize     uint16

	Root *Directory

	// GMTOffsetMinutes is (local - UTC) in minutes, used to derive the
	// 15-minute-unit offset byte of this volume's volume-descriptor and
	// Directory Record timestamps. 0 means unspecified:
	// BuildOptions.GMTOffsetMinutes is used instead.
	GMTOffsetMinutes int
}

// BootPlatform identifies the El Torito platform ID of a boot catalog or
// boot section.
type BootPlatform byte

const (
	BootPlatformX86     BootPlatform = 0x00
	BootPlatformPowerPC BootPlatform = 0x01
	BootPlatformMac     BootPlatform = 0x02
)

// BootMediaType selects the El Torito emulation mode of a boot entry.
type BootMediaType byte

const (
	BootMediaNoEmulation BootMediaType = 0
	BootMediaFloppy12    BootMediaType = 1
	BootMediaFloppy144   BootMediaType = 2
	BootMediaFloppy288   BootMediaType = 3
	BootMediaHardDisk    BootMediaType = 4
)

// BootCatalogEntry describes one bootable image: the initial/default entry,
// or one entry within a BootSection.
type BootCatalogEntry struct {
	Bootable  bool
	MediaType BootMediaType
	// LoadSegment is the real-mode segment the boot image is loaded at; 0
	// means the BIOS default of 0x07C0.
	LoadSegment uint16
	SystemType  byte
	SectorCount uint16

	// Data is the raw boot-sector bytes this entry's Content yields. Its
	// length, rounded up to a sector, determines the allocated extent.
	Data ContentSource

	VendorUniqueSelectionCriteria []byte
}

// BootSection is an additional (non-initial) boot section: its own
// platform ID and an ordered list of entries.
type BootSection struct {
	PlatformId BootPlatform
	Entries    []*BootCatalogEntry
}

// BootCatalog describes the El Torito boot record and catalog. InitialEntry
// is mandatory; its absence is ModelInconsistent.
type BootCatalog struct {
	PlatformId   BootPlatform
	IdString     string
	InitialEntry *BootCatalogEntry
	Sections     []*BootSection
}

// DiskImage aggregates one primary volume, zero or more supplementary
// volumes, and an optional boot catalog. A DiskImage is valid iff Primary
// is non-nil.
type DiskImage struct {
	Primary        *Volume
	Supplementary  []*Volume
	Boot           *BootCatalog
}
