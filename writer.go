// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import "encoding/binary"

// Writer is an append-or-patch byte buffer. Both the .res emitter (res.go)
// and the COFF emitter (coff.go) use it as their single sink, the way the
// teacher's parser uses a single mmap-backed *File as its single source
// (file.go). A Writer owns its backing buffer exclusively for the
// duration of one emission; there is no shared mutable state between
// concurrent emissions (see spec.md §5).
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer. The caller must not mutate it
// while the Writer is still in use.
func (w *Writer) Bytes() []byte { return w.buf }

// Pos returns the current append offset.
func (w *Writer) Pos() int { return len(w.buf) }

// Reserve appends n zero bytes and returns the offset they start at, so
// the caller can come back later with WriteBytesAt to patch them. This is
// how every back-patched length field in both formats is produced.
func (w *Writer) Reserve(n int) int {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return pos
}

// WriteBytes appends data, advancing Pos.
func (w *Writer) WriteBytes(data []byte) {
	w.buf = append(w.buf, data...)
}

// WriteBytesAt overwrites the region [offset, offset+len(data)) without
// moving Pos. It panics if the region extends past the current end of the
// buffer — per spec.md §7 this is a programmer bug (a length was
// back-patched against a window that was never reserved), not a
// recoverable error.
func (w *Writer) WriteBytesAt(offset int, data []byte) {
	if offset+len(data) > len(w.buf) {
		panic("winres: WriteBytesAt past end of buffer")
	}
	copy(w.buf[offset:], data)
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteU16 appends v little-endian.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.WriteBytes(b[:])
}

// WriteU32 appends v little-endian.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteBytes(b[:])
}

// patchU16 rewrites the u16 at offset.
func (w *Writer) patchU16(offset int, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.WriteBytesAt(offset, b[:])
}

// patchU32 rewrites the u32 at offset.
func (w *Writer) patchU32(offset int, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteBytesAt(offset, b[:])
}

// AlignTo reserves the zero bytes needed to bring Pos to a multiple of k,
// relative to the start of the buffer. coff.go keeps each section in its own
// *Writer and calls this on the .rsrc$02 payload writer, so alignment stays
// section-relative without any separate wrapper type.
func (w *Writer) AlignTo(k int) {
	pad := (k - (w.Pos() % k)) % k
	if pad > 0 {
		w.Reserve(pad)
	}
}

// ScopedSlice returns a sub-writer bound to the fixed window
// [offset, offset+length) of w. Writes through the returned *ScopedWriter
// are position-checked against that window; its Pos() is window-relative.
// The caller must call Close exactly once, after writing exactly length
// bytes — Close panics otherwise, per spec.md §7 ("a contract violation
// aborts the process; this is a structural invariant, not a recoverable
// error"). Scoped slices let an emitter reserve a header region up front,
// keep appending payload through the parent, and later patch the header
// with the guarantee that the whole reserved window was filled.
func (w *Writer) ScopedSlice(offset, length int) *ScopedWriter {
	if offset+length > len(w.buf) {
		panic("winres: ScopedSlice window exceeds buffer")
	}
	return &ScopedWriter{parent: w, start: offset, length: length}
}

// ScopedWriter is a window onto a parent Writer's buffer. See
// Writer.ScopedSlice.
type ScopedWriter struct {
	parent *Writer
	start  int
	length int
	pos    int
}

// Pos returns the window-relative append offset.
func (s *ScopedWriter) Pos() int { return s.pos }

// WriteBytes writes into the window, advancing Pos. It panics if the
// write would run past the window boundary.
func (s *ScopedWriter) WriteBytes(data []byte) {
	if s.pos+len(data) > s.length {
		panic("winres: ScopedWriter write past window")
	}
	s.parent.WriteBytesAt(s.start+s.pos, data)
	s.pos += len(data)
}

// WriteU8 writes a single byte into the window.
func (s *ScopedWriter) WriteU8(v uint8) { s.WriteBytes([]byte{v}) }

// WriteU16 writes v little-endian into the window.
func (s *ScopedWriter) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	s.WriteBytes(b[:])
}

// WriteU32 writes v little-endian into the window.
func (s *ScopedWriter) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.WriteBytes(b[:])
}

// Close asserts that the window was filled completely. Call it exactly
// once when done writing into the scope.
func (s *ScopedWriter) Close() {
	if s.pos != s.length {
		panic("winres: ScopedWriter window not fully written")
	}
}

// versionWriter wraps a Writer with a recorded local origin, so nested
// VS_VERSIONINFO length prefixes measure extents relative to the start of
// the record they belong to rather than file extents. This mirrors the
// teacher's GetOffset/GetStringFileInfoOffset helpers in version.go, which
// all compute offsets relative to e.Data.Struct.OffsetToData — here we do
// the equivalent at write time.
type versionWriter struct {
	w      *Writer
	origin int
}

// newVersionWriter returns a versionWriter whose Pos() is relative to the
// writer's current position.
func newVersionWriter(w *Writer) *versionWriter {
	return &versionWriter{w: w, origin: w.Pos()}
}

// Pos returns the offset from origin.
func (v *versionWriter) Pos() int { return v.w.Pos() - v.origin }

// Reserve reserves n zero bytes in the underlying writer, returning a
// local (origin-relative) offset for later patching.
func (v *versionWriter) Reserve(n int) int { return v.w.Reserve(n) - v.origin }

// WriteU16 writes v16 little-endian.
func (v *versionWriter) WriteU16(v16 uint16) { v.w.WriteU16(v16) }

// WriteU32 writes v32 little-endian.
func (v *versionWriter) WriteU32(v32 uint32) { v.w.WriteU32(v32) }

// WriteBytes appends data verbatim.
func (v *versionWriter) WriteBytes(data []byte) { v.w.WriteBytes(data) }

// PatchU16 rewrites the u16 at the local offset produced by a prior
// Reserve call.
func (v *versionWriter) PatchU16(localOffset int, val uint16) {
	v.w.patchU16(localOffset+v.origin, val)
}

// AlignTo pads until Pos() is a multiple of k, relative to origin.
func (v *versionWriter) AlignTo(k int) {
	pad := (k - (v.Pos() % k)) % k
	if pad > 0 {
		v.Reserve(pad)
	}
}
