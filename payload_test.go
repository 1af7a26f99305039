// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// TestWriteFixedFileInfo checks the VS_FIXEDFILEINFO byte layout against
// the scenario spec.md §8's S2 describes: file_version = product_version
// = (1, 2, 3, 4), flags = 0.
func TestWriteFixedFileInfo(t *testing.T) {
	v := VersionInfo{
		FileVersion:    VersionNumber{Major: 1, Minor: 2, Patch: 3, Build: 4},
		ProductVersion: VersionNumber{Major: 1, Minor: 2, Patch: 3, Build: 4},
		FileType:       FileTypeExe,
	}

	w := NewWriter()
	rec := newVersionWriter(w)
	writeFixedFileInfo(rec, v)
	got := w.Bytes()

	if len(got) != 52 {
		t.Fatalf("VS_FIXEDFILEINFO length = %d, want 52", len(got))
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(got[off:]) }
	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(got[off:]) }

	if u32(0) != vsFileInfoSignature {
		t.Errorf("signature = %#x, want %#x", u32(0), vsFileInfoSignature)
	}
	if u32(4) != 0x00010000 {
		t.Errorf("struct version = %#x, want 0x00010000", u32(4))
	}
	// file version: minor, major, build, patch
	if u16(8) != 2 || u16(10) != 1 || u16(12) != 4 || u16(14) != 3 {
		t.Errorf("file version fields = %d,%d,%d,%d, want 2,1,4,3", u16(8), u16(10), u16(12), u16(14))
	}
	if u16(16) != 2 || u16(18) != 1 || u16(20) != 4 || u16(22) != 3 {
		t.Errorf("product version fields = %d,%d,%d,%d, want 2,1,4,3", u16(16), u16(18), u16(20), u16(22))
	}
	if u32(24) != fileFlagsMask {
		t.Errorf("flags mask = %#x, want %#x", u32(24), fileFlagsMask)
	}
	if u32(28) != 0 {
		t.Errorf("flags = %#x, want 0", u32(28))
	}
	if u32(32) != fileOSNTWindows32 {
		t.Errorf("fileos = %#x, want %#x", u32(32), fileOSNTWindows32)
	}
	if u32(36) != uint32(FileTypeExe) {
		t.Errorf("filetype = %d, want %d", u32(36), FileTypeExe)
	}
	if u32(40) != 0 || u32(44) != 0 || u32(48) != 0 {
		t.Errorf("filesubtype/date fields not zero")
	}
}

func TestBuildVersionInfoPayloadLengthIsSelfConsistent(t *testing.T) {
	v := VersionInfo{
		FileVersion:    VersionNumber{Major: 1},
		ProductVersion: VersionNumber{Major: 1},
		FileType:       FileTypeExe,
		Strings: map[string]string{
			"ProductName":     "Test App",
			"FileDescription": "A test application",
		},
	}

	payload, err := buildVersionInfoPayload(v)
	if err != nil {
		t.Fatalf("buildVersionInfoPayload: %v", err)
	}
	wLength := binary.LittleEndian.Uint16(payload[0:])
	if int(wLength) != len(payload) {
		t.Fatalf("VS_VERSION_INFO wLength = %d, want %d (len of payload)", wLength, len(payload))
	}
}

func TestVersionInfoPayloadDeterministic(t *testing.T) {
	v := VersionInfo{
		Strings: map[string]string{
			"ProductName":     "Zeta",
			"FileDescription": "Alpha",
			"CompanyName":     "Middle",
		},
	}

	a, err := buildVersionInfoPayload(v)
	if err != nil {
		t.Fatalf("buildVersionInfoPayload: %v", err)
	}
	b, err := buildVersionInfoPayload(v)
	if err != nil {
		t.Fatalf("buildVersionInfoPayload: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("two emissions of the same VersionInfo differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("two emissions of the same VersionInfo diverge at byte %d", i)
		}
	}
}

func TestEncodeUTF16ZLengthAndTerminator(t *testing.T) {
	encoded := encodeUTF16Z("App")
	// 3 UTF-16 code units + 1 null terminator = 8 bytes.
	if len(encoded) != 8 {
		t.Fatalf("encodeUTF16Z(\"App\") length = %d, want 8", len(encoded))
	}
	if encoded[len(encoded)-2] != 0 || encoded[len(encoded)-1] != 0 {
		t.Fatalf("encodeUTF16Z did not null-terminate")
	}
}

// TestBuildVersionInfoPayloadRejectsOversizedString checks spec.md §7's
// capacity check directly at the payload layer: a single string value long
// enough to push its own record's wLength past 65535 must fail rather than
// wrap uint16(rec.Pos()) around silently.
func TestBuildVersionInfoPayloadRejectsOversizedString(t *testing.T) {
	v := VersionInfo{
		Strings: map[string]string{"FileDescription": strings.Repeat("x", 70000)},
	}
	_, err := buildVersionInfoPayload(v)
	if !errors.Is(err, ErrVersionRecordTooLarge) {
		t.Fatalf("err = %v, want ErrVersionRecordTooLarge", err)
	}
}

func TestWriteIconGroupPayload(t *testing.T) {
	w := NewWriter()
	writeIconGroupPayload(w, []IconGroupEntry{
		{IconID: 128, IconSize: 512},
		{IconID: 129, IconSize: 1024},
	})
	got := w.Bytes()

	if len(got) != 6+14*2 {
		t.Fatalf("GRPICONDIR payload length = %d, want %d", len(got), 6+14*2)
	}
	if binary.LittleEndian.Uint16(got[0:]) != 0 {
		t.Errorf("reserved field = %d, want 0", binary.LittleEndian.Uint16(got[0:]))
	}
	if binary.LittleEndian.Uint16(got[2:]) != 1 {
		t.Errorf("type field = %d, want 1 (icon)", binary.LittleEndian.Uint16(got[2:]))
	}
	if binary.LittleEndian.Uint16(got[4:]) != 2 {
		t.Errorf("count field = %d, want 2", binary.LittleEndian.Uint16(got[4:]))
	}

	entry0 := got[6:20]
	if binary.LittleEndian.Uint32(entry0[8:]) != 512 {
		t.Errorf("entry 0 bytes_in_res = %d, want 512", binary.LittleEndian.Uint32(entry0[8:]))
	}
	if binary.LittleEndian.Uint16(entry0[12:]) != 128 {
		t.Errorf("entry 0 id = %d, want 128", binary.LittleEndian.Uint16(entry0[12:]))
	}
}
