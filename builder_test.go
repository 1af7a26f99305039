// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"testing"
)

func TestBuilderAssignsStableIconIDsFromBase(t *testing.T) {
	b := NewBuilder(nil)
	id1, err := b.AddIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	id2, err := b.AddIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	if id1 != iconBaseID {
		t.Errorf("first icon ID = %d, want %d", id1, iconBaseID)
	}
	if id2 != iconBaseID+1 {
		t.Errorf("second icon ID = %d, want %d", id2, iconBaseID+1)
	}
}

func TestBuilderRejectsDuplicateManifest(t *testing.T) {
	b := NewBuilder(nil)
	if err := b.SetManifest("<assembly/>"); err != nil {
		t.Fatalf("first SetManifest: %v", err)
	}
	err := b.SetManifest("<assembly/>")
	if !errors.Is(err, ErrManifestAlreadySet) {
		t.Fatalf("err = %v, want ErrManifestAlreadySet", err)
	}
}

func TestBuilderAddIconGroupRejectsUnknownIcon(t *testing.T) {
	b := NewBuilder(nil)
	err := b.AddIconGroup(1, []uint16{999})
	if !errors.Is(err, ErrUnknownIconInGroup) {
		t.Fatalf("err = %v, want ErrUnknownIconInGroup", err)
	}
}

func TestBuilderAddIconGroupRejectsDuplicateGroupID(t *testing.T) {
	b := NewBuilder(nil)
	id, err := b.AddIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	if err := b.AddIconGroup(1, []uint16{id}); err != nil {
		t.Fatalf("first AddIconGroup: %v", err)
	}
	err = b.AddIconGroup(1, []uint16{id})
	if !errors.Is(err, ErrDuplicateGroupID) {
		t.Fatalf("err = %v, want ErrDuplicateGroupID", err)
	}
}

// TestBuilderCompileToResIncludesEverything covers scenario-style coverage
// across SetVersionInfo/AddIcon/AddIconGroup/SetManifest in one pass,
// checking the compiled .res round-trips through ParseRes.
func TestBuilderCompileToResIncludesEverything(t *testing.T) {
	b := NewBuilder(nil)
	b.SetVersionInfo(VersionInfo{
		FileVersion:    VersionNumber{Major: 2, Minor: 1},
		ProductVersion: VersionNumber{Major: 2, Minor: 1},
		FileType:       FileTypeExe,
		Strings:        map[string]string{"ProductName": "Sample"},
	})
	id, err := b.AddIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	if err := b.AddIconGroup(1, []uint16{id}); err != nil {
		t.Fatalf("AddIconGroup: %v", err)
	}
	if err := b.SetManifest("<assembly/>"); err != nil {
		t.Fatalf("SetManifest: %v", err)
	}

	out, err := b.CompileToRes()
	if err != nil {
		t.Fatalf("CompileToRes: %v", err)
	}
	records, err := ParseRes(out)
	if err != nil {
		t.Fatalf("ParseRes: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (version, icon, group, manifest)", len(records))
	}
}

func TestBuilderCompileToCOFF(t *testing.T) {
	b := NewBuilder(nil)
	id, err := b.AddIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	if err := b.AddIconGroup(1, []uint16{id}); err != nil {
		t.Fatalf("AddIconGroup: %v", err)
	}

	out, err := b.CompileToCOFF(ArchAMD64)
	if err != nil {
		t.Fatalf("CompileToCOFF: %v", err)
	}
	if _, err := ParseCOFF(out); err != nil {
		t.Fatalf("ParseCOFF: %v", err)
	}
}
