// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"strings"
	"testing"
)

// TestEmitResRoundTrips exercises spec.md §8's round-trip readability
// property against ParseRes: every non-sentinel record emitted must be
// recoverable with the right type/id/size tuple.
func TestEmitResRoundTrips(t *testing.T) {
	version := VersionInfo{
		FileVersion:    VersionNumber{Major: 1, Minor: 0},
		ProductVersion: VersionNumber{Major: 1, Minor: 0},
		FileType:       FileTypeExe,
	}
	icons := []Record{{Type: RTIcon, ID: 128, Data: make([]byte, 37)}}
	groups := []Record{{Type: RTGroupIcon, ID: 1, Data: make([]byte, 20)}}
	manifest := []byte("<assembly/>")

	out, err := EmitRes(nil, version, icons, groups, manifest)
	if err != nil {
		t.Fatalf("EmitRes: %v", err)
	}

	records, err := ParseRes(out)
	if err != nil {
		t.Fatalf("ParseRes: %v", err)
	}

	want := map[ResourceType]int{RTVersion: 1, RTIcon: 1, RTGroupIcon: 1, RTManifest: 1}
	got := map[ResourceType]int{}
	for _, r := range records {
		got[r.Type]++
	}
	for rt, n := range want {
		if got[rt] != n {
			t.Errorf("record count for %s = %d, want %d", rt, got[rt], n)
		}
	}

	for _, r := range records {
		switch r.Type {
		case RTIcon:
			if r.ID != 128 || r.Size != 37 {
				t.Errorf("icon record = %+v, want ID=128 Size=37", r)
			}
		case RTGroupIcon:
			if r.ID != 1 || r.Size != 20 {
				t.Errorf("group record = %+v, want ID=1 Size=20", r)
			}
		case RTManifest:
			if r.Size != len(manifest) {
				t.Errorf("manifest record size = %d, want %d", r.Size, len(manifest))
			}
		}
	}
}

// TestEmitResAlignment checks that the .res output ends on a 4-byte
// boundary after a record whose payload length is odd (the trailing padding
// behind invariant 2 of spec.md §8).
func TestEmitResAlignment(t *testing.T) {
	version := VersionInfo{}
	icons := []Record{{Type: RTIcon, ID: 1, Data: []byte{1, 2, 3}}} // odd length forces padding
	out, err := EmitRes(nil, version, icons, nil, nil)
	if err != nil {
		t.Fatalf("EmitRes: %v", err)
	}

	if len(out)%4 != 0 {
		t.Fatalf("EmitRes output length %d is not 4-byte aligned", len(out))
	}
}

// TestEmitResNoManifest confirms a nil manifest produces no Manifest
// record at all, rather than an empty one.
func TestEmitResNoManifest(t *testing.T) {
	out, err := EmitRes(nil, VersionInfo{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("EmitRes: %v", err)
	}
	records, err := ParseRes(out)
	if err != nil {
		t.Fatalf("ParseRes: %v", err)
	}
	for _, r := range records {
		if r.Type == RTManifest {
			t.Fatalf("unexpected Manifest record with nil manifest input")
		}
	}
}

// TestEmitResRejectsOversizedVersionRecord checks spec.md §7's fatal
// "length field would exceed u16/u32 capacity" path: a single string value
// long enough to push StringTable's wLength past 65535 must fail instead of
// silently wrapping.
func TestEmitResRejectsOversizedVersionRecord(t *testing.T) {
	version := VersionInfo{
		Strings: map[string]string{"FileDescription": strings.Repeat("x", 70000)},
	}
	_, err := EmitRes(nil, version, nil, nil, nil)
	if !errors.Is(err, ErrVersionRecordTooLarge) {
		t.Fatalf("err = %v, want ErrVersionRecordTooLarge", err)
	}
}
