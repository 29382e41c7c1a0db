package iso9660

import (
	"fmt"
	"io"
	"os"
)

// Builder orchestrates the two-pass layout and emission pipeline: canonicalise
// names, allocate sectors for every structure, then emit each structure in
// the order the allocator reserved it, jumping back via PreservingLocation
// to fill in descriptors whose fields only become known afterward.
type Builder struct {
	Image   *DiskImage
	Options *BuildOptions
}

// NewBuilder returns a Builder for img. If opts is nil, DefaultOptions is used.
func NewBuilder(img *DiskImage, opts *BuildOptions) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Builder{Image: img, Options: opts}
}

// BuildToFile creates (or truncates) path and writes the image to it.
func (b *Builder) BuildToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", path, err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("closing output file: %w", closeErr)
		}
	}()
	return b.Build(f)
}

func allVolumes(img *DiskImage) []*Volume {
	vols := make([]*Volume, 0, 1+len(img.Supplementary))
	vols = append(vols, img.Primary)
	vols = append(vols, img.Supplementary...)
	return vols
}

// Build writes the complete disk image to w, which must be seekable and
// truncatable; the builder has exclusive write access to it for the
// duration of the call.
func (b *Builder) Build(w io.WriteSeeker) error {
	img := b.Image
	opts := b.Options

	if img.Primary == nil {
		return newModelInconsistent("DiskImage", "no primary volume")
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if img.Boot != nil && img.Boot.InitialEntry == nil {
		return newModelInconsistent("DiskImage.Boot", "boot catalog has no InitialEntry")
	}
	for _, v := range allVolumes(img) {
		if v.LogicalBlockSize == 0 {
			v.LogicalBlockSize = SectorSize
		} else if v.LogicalBlockSize != SectorSize {
			return newUnsupported(v.VolumeIdentifier, "logical block size %d is not supported; only %d is", v.LogicalBlockSize, SectorSize)
		}
		if v.VolumeSequenceNumber == 0 {
			v.VolumeSequenceNumber = 1
		}
		if v.VolumeSetSize == 0 {
			v.VolumeSetSize = 1
		}
	}

	bw, err := NewByteWriter(w)
	if err != nil {
		return err
	}
	addr := NewAddresser(bw)
	alloc := NewAllocator(addr)
	defaultTime := opts.now()

	if err := bw.WriteZeros(SystemAreaSectors * SectorSize); err != nil {
		return err
	}

	if err := canonicalizeVolume(img.Primary, opts); err != nil {
		return err
	}
	for _, v := range img.Supplementary {
		if err := canonicalizeVolume(v, opts); err != nil {
			return err
		}
	}

	if _, err := alloc.AllocateVolumeDescriptor(img.Primary); err != nil {
		return err
	}
	if img.Boot != nil {
		if _, err := alloc.AllocateBootRecord(); err != nil {
			return err
		}
	}
	for _, v := range img.Supplementary {
		if _, err := alloc.AllocateVolumeDescriptor(v); err != nil {
			return err
		}
	}

	if err := emitTerminator(bw); err != nil {
		return err
	}

	if img.Boot != nil {
		if err := allocateAndEmitBootCatalog(bw, addr, alloc, img.Boot); err != nil {
			return err
		}
		recSector, _ := alloc.BootRecordSector()
		catSector, _ := alloc.BootCatalogSector()
		if err := addr.PreservingLocation(func() error {
			if err := addr.SeekToSector(recSector); err != nil {
				return err
			}
			return emitBootRecord(bw, catSector)
		}); err != nil {
			return err
		}
	}

	primaryStart := addr.CurrentSector()
	if err := emitVolume(bw, addr, alloc, img.Primary, vdTypePrimary, primaryStart, opts, defaultTime); err != nil {
		return err
	}
	for _, v := range img.Supplementary {
		start := addr.CurrentSector()
		if err := emitVolume(bw, addr, alloc, v, vdTypeSupplementary, start, opts, defaultTime); err != nil {
			return err
		}
	}

	// Extents reached only by a seek do not extend the stream, so round the
	// stream itself up to a sector boundary by writing one zero byte.
	end, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return newIoFailure("Builder.Build", err)
	}
	if rem := end % SectorSize; rem != 0 {
		if err := bw.SeekTo(end - rem + SectorSize - 1); err != nil {
			return err
		}
		return bw.WriteU8(0)
	}
	return nil
}

// allocateAndEmitBootCatalog reserves the catalog's own sector and each
// entry's payload extent, writes the catalog, then streams every entry's
// boot image into its reserved extent.
func allocateAndEmitBootCatalog(bw *ByteWriter, addr *Addresser, alloc *Allocator, bc *BootCatalog) error {
	if _, err := alloc.AllocateBootCatalog(); err != nil {
		return err
	}
	if err := alloc.AllocateBootEntryData(bc.InitialEntry); err != nil {
		return err
	}
	for _, sec := range bc.Sections {
		for _, e := range sec.Entries {
			if err := alloc.AllocateBootEntryData(e); err != nil {
				return err
			}
		}
	}

	catSector, _ := alloc.BootCatalogSector()
	if err := addr.PreservingLocation(func() error {
		if err := addr.SeekToSector(catSector); err != nil {
			return err
		}
		return emitBootCatalog(bw, alloc, bc)
	}); err != nil {
		return err
	}

	if err := emitBootEntryContent(bw, addr, alloc, bc.InitialEntry); err != nil {
		return err
	}
	for _, sec := range bc.Sections {
		for _, e := range sec.Entries {
			if err := emitBootEntryContent(bw, addr, alloc, e); err != nil {
				return err
			}
		}
	}
	return nil
}
