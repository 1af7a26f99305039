// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// ErrVersionRecordTooLarge is returned when a VS_VERSIONINFO record (or one
// of its nested StringFileInfo/StringTable/String/VarFileInfo children)
// would grow past the 16-bit wLength/wValueLength field it's recorded in —
// the "length field would exceed u16/u32 capacity" fatal condition spec.md
// §7 requires emitters to reject rather than silently wrap.
var ErrVersionRecordTooLarge = errors.New("winres: version info record exceeds 65535 bytes")

// patchLength16 back-patches the u16 length field reserved at at with n,
// failing with ErrVersionRecordTooLarge instead of silently truncating when
// n can't fit — the capacity check coff.go's directory-count fields already
// apply, extended here to the version-info record lengths.
func patchLength16(rec *versionWriter, at int, n int) error {
	if n > 0xFFFF {
		return ErrVersionRecordTooLarge
	}
	rec.PatchU16(at, uint16(n))
	return nil
}

// utf16LE is shared by every payload serializer that needs to emit a
// null-terminated UTF-16LE string (manifest text excluded, which is UTF-8).
// Reusing golang.org/x/text/encoding/unicode here mirrors the teacher's own
// choice of library for the inverse operation: helper.go's
// DecodeUTF16String is built on the same package.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

// encodeUTF16Z encodes s as UTF-16LE code units followed by a single
// null u16 terminator.
func encodeUTF16Z(s string) []byte {
	b, err := utf16LE.Bytes([]byte(s))
	if err != nil {
		// utf16LE.Bytes only fails on invalid UTF-8 input, which callers
		// are expected to validate ahead of time; treat as a contract
		// violation rather than threading an error through every payload
		// builder.
		panic("winres: invalid UTF-8 string in version/manifest field: " + err.Error())
	}
	return append(b, 0, 0)
}

// writeIconPayload writes an Icon resource's payload: the PNG bytes
// verbatim (spec.md §4.B "Raw icon").
func writeIconPayload(w *Writer, icon Icon) {
	w.WriteBytes(icon.data)
}

// writeManifestPayload writes a Manifest resource's payload: the UTF-8
// manifest text verbatim.
func writeManifestPayload(w *Writer, manifest string) {
	w.WriteBytes([]byte(manifest))
}

// writeIconGroupPayload writes a GRPICONDIR header followed by one
// GRPICONDIRENTRY per entry, per spec.md §4.B. Width/height are
// intentionally zero; Windows derives dimensions from the PNG itself.
func writeIconGroupPayload(w *Writer, entries []IconGroupEntry) {
	w.WriteU16(0)                     // reserved
	w.WriteU16(1)                     // type = icon
	w.WriteU16(uint16(len(entries))) // count
	for _, e := range entries {
		w.WriteU8(0)                   // width
		w.WriteU8(0)                   // height
		w.WriteU8(0)                   // colors
		w.WriteU8(0)                   // reserved
		w.WriteU16(1)                  // planes
		w.WriteU16(32)                 // bitcount
		w.WriteU32(uint32(e.IconSize)) // bytes_in_res
		w.WriteU16(e.IconID)           // id
	}
}

// fieldType identifies whether a VS_VERSIONINFO-style record's value is
// binary or text, per the wType field of the common 6-byte header.
type fieldType uint16

const (
	fieldBinary fieldType = 0
	fieldText   fieldType = 1
)

// writeRecordHeader writes the common (wLength, wValueLength, wType)
// header plus the null-terminated key into the record's own versionWriter,
// returning the local offsets of the two back-patched length fields so the
// caller can fill them in once the value/children have been written.
// Padding after the key aligns the value on a 4-byte boundary relative to
// the record start, per spec.md §4.B.
func writeRecordHeader(rec *versionWriter, key string, ft fieldType) (lengthAt, valueLengthAt int) {
	lengthAt = rec.Reserve(2)
	valueLengthAt = rec.Reserve(2)
	rec.WriteU16(uint16(ft))
	rec.WriteBytes(encodeUTF16Z(key))
	rec.AlignTo(4)
	return lengthAt, valueLengthAt
}

// writeFixedFileInfo writes the VS_FIXEDFILEINFO body described in
// spec.md §4.B, byte for byte matching scenario S2's expected output.
func writeFixedFileInfo(rec *versionWriter, v VersionInfo) {
	rec.WriteU32(vsFileInfoSignature)
	rec.WriteU32(0x00010000) // struct version

	fv := v.FileVersion
	rec.WriteU16(fv.Minor)
	rec.WriteU16(fv.Major)
	rec.WriteU16(fv.Build)
	rec.WriteU16(fv.Patch)

	pv := v.ProductVersion
	rec.WriteU16(pv.Minor)
	rec.WriteU16(pv.Major)
	rec.WriteU16(pv.Build)
	rec.WriteU16(pv.Patch)

	rec.WriteU32(fileFlagsMask)
	rec.WriteU32(uint32(v.Flags))
	rec.WriteU32(fileOSNTWindows32)
	rec.WriteU32(uint32(v.FileType))
	rec.WriteU32(0) // file subtype
	rec.WriteU32(0) // file date MS
	rec.WriteU32(0) // file date LS
}

// sortedStringKeys returns v.Strings' keys in a stable, deterministic
// (lexicographic) order so repeated emissions of the same VersionInfo
// produce byte-identical output (spec.md §3 "Key iteration order must be
// deterministic").
func sortedStringKeys(v VersionInfo) []string {
	keys := make([]string, 0, len(v.Strings))
	for k := range v.Strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeVersionInfoPayload writes the full VS_VERSIONINFO record: the
// VS_FIXEDFILEINFO value, a StringFileInfo child with one "000004B0"
// string table, and a VarFileInfo child with one Translation value — per
// spec.md §4.B. The bytes written are the Version resource's payload for
// both the .res and COFF emitters; they are format-agnostic, since both
// formats wrap the same VS_VERSIONINFO bytes differently.
func writeVersionInfoPayload(w *Writer, v VersionInfo) error {
	rec := newVersionWriter(w)
	lengthAt, valueLengthAt := writeRecordHeader(rec, "VS_VERSION_INFO", fieldBinary)

	valueStart := rec.Pos()
	writeFixedFileInfo(rec, v)
	if err := patchLength16(rec, valueLengthAt, rec.Pos()-valueStart); err != nil {
		return err
	}
	rec.AlignTo(4)

	if err := writeStringFileInfo(rec, v); err != nil {
		return err
	}
	if err := writeVarFileInfo(rec); err != nil {
		return err
	}

	return patchLength16(rec, lengthAt, rec.Pos())
}

// writeStringFileInfo writes the StringFileInfo child with a single
// 0x000004B0 (language 0x0000, code page 0x04B0 Unicode) StringTable containing one
// String entry per v.Strings key, in sorted order. Each child record gets
// its own versionWriter so its wLength is relative to its own start, per
// spec.md §4.B ("each aligned relative to the record start").
func writeStringFileInfo(parent *versionWriter, v VersionInfo) error {
	rec := newVersionWriter(parent.w)
	lengthAt, valueLengthAt := writeRecordHeader(rec, "StringFileInfo", fieldText)
	rec.PatchU16(valueLengthAt, 0) // no value, only children

	if err := writeStringTable(rec, v); err != nil {
		return err
	}

	return patchLength16(rec, lengthAt, rec.Pos())
}

// writeStringTable writes the "000004B0" StringTable child: one 8-digit
// hex language+codepage identifier, followed by one String entry per key.
func writeStringTable(parent *versionWriter, v VersionInfo) error {
	rec := newVersionWriter(parent.w)
	lengthAt, valueLengthAt := writeRecordHeader(rec, "000004B0", fieldText)
	rec.PatchU16(valueLengthAt, 0)

	for _, key := range sortedStringKeys(v) {
		if err := writeVersionString(rec, key, v.Strings[key]); err != nil {
			return err
		}
	}

	return patchLength16(rec, lengthAt, rec.Pos())
}

// writeVersionString writes a single String entry: key/value pair whose
// wValueLength counts UTF-16 code units (including the null terminator),
// per spec.md §4.B.
func writeVersionString(parent *versionWriter, key, value string) error {
	rec := newVersionWriter(parent.w)
	lengthAt, valueLengthAt := writeRecordHeader(rec, key, fieldText)

	encoded := encodeUTF16Z(value)
	valueUnits := len(encoded) / 2 // code units, including the null terminator
	if err := patchLength16(rec, valueLengthAt, valueUnits); err != nil {
		return err
	}
	rec.WriteBytes(encoded)
	rec.AlignTo(4)

	return patchLength16(rec, lengthAt, rec.Pos())
}

// writeVarFileInfo writes the VarFileInfo child containing a single
// Translation binary value fixed at 0x04B00000, per spec.md §4.B. Written
// little-endian, that is language 0x0000 followed by code page 0x04B0
// (Unicode).
func writeVarFileInfo(parent *versionWriter) error {
	rec := newVersionWriter(parent.w)
	lengthAt, _ := writeRecordHeader(rec, "VarFileInfo", fieldText)

	trans := newVersionWriter(rec.w)
	transLengthAt, transValueLengthAt := writeRecordHeader(trans, "Translation", fieldBinary)
	valueStart := trans.Pos()
	trans.WriteU32(0x04B00000)
	if err := patchLength16(trans, transValueLengthAt, trans.Pos()-valueStart); err != nil {
		return err
	}
	if err := patchLength16(trans, transLengthAt, trans.Pos()); err != nil {
		return err
	}

	return patchLength16(rec, lengthAt, rec.Pos())
}

// buildVersionInfoPayload returns the standalone VS_VERSIONINFO byte
// sequence for v — the shared payload both the .res and COFF emitters
// embed verbatim (just wrapped differently).
func buildVersionInfoPayload(v VersionInfo) ([]byte, error) {
	w := NewWriter()
	if err := writeVersionInfoPayload(w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
