package iso9660

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// ByteWriter provides the scalar primitives ECMA-119 structures are built
// from: fixed-width integers in little-, big-, and both-endian form, padded
// identifier strings over a restricted alphabet, and the two date/time
// encodings. It tracks its own write position so callers never need to
// round-trip through Seek(0, io.SeekCurrent).
type ByteWriter struct {
	w   io.WriteSeeker
	pos int64
}

// NewByteWriter wraps w, querying its current offset as the starting
// position.
func NewByteWriter(w io.WriteSeeker) (*ByteWriter, error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, newIoFailure("ByteWriter.init", err)
	}
	return &ByteWriter{w: w, pos: pos}, nil
}

// Position returns the writer's current byte offset.
func (bw *ByteWriter) Position() int64 { return bw.pos }

// SeekTo moves the writer to an absolute byte offset.
func (bw *ByteWriter) SeekTo(offset int64) error {
	n, err := bw.w.Seek(offset, io.SeekStart)
	if err != nil {
		return newIoFailure("ByteWriter.SeekTo", err)
	}
	bw.pos = n
	return nil
}

func (bw *ByteWriter) write(p []byte) error {
	n, err := bw.w.Write(p)
	bw.pos += int64(n)
	if err != nil {
		return newIoFailure("ByteWriter.write", err)
	}
	if n != len(p) {
		return newIoFailure("ByteWriter.write", io.ErrShortWrite)
	}
	return nil
}

// WriteU8 writes a single unsigned byte.
func (bw *ByteWriter) WriteU8(v uint8) error { return bw.write([]byte{v}) }

// WriteI8 writes a single signed byte.
func (bw *ByteWriter) WriteI8(v int8) error { return bw.write([]byte{byte(v)}) }

// WriteU16LE writes a little-endian uint16.
func (bw *ByteWriter) WriteU16LE(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return bw.write(b[:])
}

// WriteU16BE writes a big-endian uint16.
func (bw *ByteWriter) WriteU16BE(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return bw.write(b[:])
}

// WriteU32LE writes a little-endian uint32.
func (bw *ByteWriter) WriteU32LE(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return bw.write(b[:])
}

// WriteU32BE writes a big-endian uint32.
func (bw *ByteWriter) WriteU32BE(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return bw.write(b[:])
}

// WriteU16Both writes the ECMA-119 both-endian 16-bit idiom: the
// little-endian form immediately followed by the big-endian form (4 bytes).
func (bw *ByteWriter) WriteU16Both(v uint16) error {
	if err := bw.WriteU16LE(v); err != nil {
		return err
	}
	return bw.WriteU16BE(v)
}

// WriteU32Both writes the both-endian 32-bit idiom (8 bytes total).
func (bw *ByteWriter) WriteU32Both(v uint32) error {
	if err := bw.WriteU32LE(v); err != nil {
		return err
	}
	return bw.WriteU32BE(v)
}

// WriteZeros writes n zero bytes.
func (bw *ByteWriter) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	const chunkLen = 4096
	chunk := make([]byte, chunkLen)
	for n > 0 {
		c := n
		if c > chunkLen {
			c = chunkLen
		}
		if err := bw.write(chunk[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}

// WritePaddedString writes s as ASCII bytes over the given char set,
// padding with pad (or 0x20 if pad is 0) up to length. It errors if s
// contains a disallowed character or is longer than length.
func (bw *ByteWriter) WritePaddedString(entity, s string, length int, set CharSet, pad byte) error {
	if len(s) > length {
		return newInvalidArgument(entity, "value %q exceeds field length %d", s, length)
	}
	if err := validateCharSet(s, set, entity); err != nil {
		return err
	}
	if pad == 0 {
		pad = ' '
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = pad
	}
	copy(buf, s)
	return bw.write(buf)
}

// WriteFileIdentifier writes s (already validated by the name canonicaliser)
// over the d-characters + separators alphabet, with no padding: identifiers
// are exactly as long as their content.
func (bw *ByteWriter) WriteFileIdentifier(entity, s string) error {
	if err := validateCharSet(s, DSeparators, entity); err != nil {
		return err
	}
	return bw.write([]byte(s))
}

// WriteBytes writes raw bytes verbatim, with no character-set check (used
// for the single-byte "."/".." identifiers, fixed magic strings, and
// pre-assembled buffers such as the boot catalog).
func (bw *ByteWriter) WriteBytes(p []byte) error { return bw.write(p) }

// VolumeTimestamp is the 17-byte volume-descriptor date/time encoding:
// 16 ASCII digits YYYYMMDDhhmmssff followed by a signed GMT-offset byte in
// 15-minute units. A nil Time writes the "not specified" encoding (16
// '0' bytes and a zero offset).
func (bw *ByteWriter) WriteVolumeTimestamp(t *time.Time, gmtOffsetMinutes int) error {
	if t == nil {
		var b [17]byte
		for i := 0; i < 16; i++ {
			b[i] = '0'
		}
		return bw.write(b[:])
	}
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10000000)
	if len(s) != 16 {
		return newSizeOverflow("ByteWriter.WriteVolumeTimestamp", "formatted timestamp %q is not 16 digits", s)
	}
	if err := bw.write([]byte(s)); err != nil {
		return err
	}
	offset, err := gmtOffsetByte(gmtOffsetMinutes)
	if err != nil {
		return err
	}
	return bw.WriteI8(offset)
}

// RecordTimestamp is the 7-byte directory-record date/time encoding: year
// since 1900, month, day, hour, minute, second, then the GMT offset byte.
func (bw *ByteWriter) WriteRecordTimestamp(t time.Time, gmtOffsetMinutes int) error {
	year := t.Year() - 1900
	if year < 0 || year > 255 {
		return newSizeOverflow("ByteWriter.WriteRecordTimestamp", "year %d cannot be represented relative to 1900", t.Year())
	}
	if err := bw.WriteU8(uint8(year)); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(t.Month())); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(t.Day())); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(t.Hour())); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(t.Minute())); err != nil {
		return err
	}
	if err := bw.WriteU8(uint8(t.Second())); err != nil {
		return err
	}
	offset, err := gmtOffsetByte(gmtOffsetMinutes)
	if err != nil {
		return err
	}
	return bw.WriteI8(offset)
}

// gmtOffsetByte converts total minutes of (local - UTC) into the signed
// 15-minute-unit byte ECMA-119 stores, clamped to [-48, +52] per the
// resolved Open Question in DESIGN.md.
func gmtOffsetByte(totalMinutes int) (int8, error) {
	units := totalMinutes / 15
	if units < -48 {
		units = -48
	}
	if units > 52 {
		units = 52
	}
	return int8(units), nil
}
