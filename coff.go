// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/saferwall/winres/rlog"
)

// nowUnix returns the current Unix timestamp, substituted with a function
// variable (rather than calling time.Now directly) so tests can pin it for
// byte-exact comparisons, the same reason the teacher threads an *Options
// through file.go instead of reaching for package-level defaults inline.
var nowUnix = func() uint32 {
	return uint32(time.Now().Unix())
}

// COFF structural constants (file.go's ImageFileHeaderCharacteristicsType
// and section.go's ImageScn* constants follow the same "named magic
// number" idiom this block continues for the object-file format).
const (
	coffFileHeaderSize    = 20
	coffSectionHeaderSize = 40
	coffSymbolSize        = 18
	coffRelocationSize    = 10
	coffResourceEntrySize = 8
	coffDirHeaderSize     = 16

	imageSymClassStatic      uint8  = 0x03
	imageFile32BitMachine    uint16 = 0x0100
	imageScnCntInitializedData uint32 = 0x00000040
	imageScnMemRead          uint32 = 0x40000000
	imageScnMemWrite         uint32 = 0x80000000

	coffSectionCharacteristics = imageScnCntInitializedData | imageScnMemRead | imageScnMemWrite

	// subdirFlag is the high bit (0x80000000) of a resource directory
	// entry's offset field: set, the offset is section-relative to
	// another directory node; cleared, it points at a 16-byte data entry.
	subdirFlag uint32 = 0x80000000
)

// ErrTooManyResources is returned by EmitCOFF if the resource inventory
// would overflow a 16-bit directory entry count, a contract spec.md §7
// classifies as a validation failure rather than a panic (unlike
// out-of-bounds writer usage, this is reachable from ordinary caller
// input: an absurdly large icon set).
var ErrTooManyResources = errors.New("winres: too many resources of one type/id for a single COFF directory level")

// coffRelocation is a pending (virtual_address, symbol_index) pair awaiting
// emission once the symbol table's final indices are known; type is fixed
// per target for the lifetime of one EmitCOFF call.
type coffRelocation struct {
	virtualAddress uint32
	symbolIndex    uint32
}

// coffPayloadSymbol names one payload's static symbol, following the
// teacher's pattern of a String()-backed lookup table for fixed names —
// here the "name" is generated per payload instead of looked up, since
// each resource gets its own synthetic symbol.
type coffPayloadSymbol struct {
	name   [8]byte
	offset uint32
}

// buildCoffTree groups resources by Type -> Id, the third (language) level
// always collapsing to exactly one entry (langUS) since multilingual
// tables are an explicit non-goal (spec.md §1).
func buildCoffTree(version VersionInfo, icons, groups []Record, manifest []byte) (map[ResourceType]map[uint16][]byte, error) {
	tree := make(map[ResourceType]map[uint16][]byte)
	put := func(rt ResourceType, id uint16, data []byte) {
		if tree[rt] == nil {
			tree[rt] = make(map[uint16][]byte)
		}
		tree[rt][id] = data
	}

	versionPayload, err := buildVersionInfoPayload(version)
	if err != nil {
		return nil, err
	}
	put(RTVersion, 1, versionPayload)
	for _, icon := range icons {
		put(RTIcon, icon.ID, icon.Data)
	}
	for _, group := range groups {
		put(RTGroupIcon, group.ID, group.Data)
	}
	if manifest != nil {
		put(RTManifest, 1, manifest)
	}
	return tree, nil
}

// writeName8 writes name into an 8-byte inline COFF name field, truncating
// or zero-padding as needed. Every name this emitter produces (".rsrc$01",
// ".rsrc$02", "$R%06X") is exactly 8 bytes, so the string table stays empty.
func writeName8(w *Writer, name string) {
	var b [8]byte
	copy(b[:], name)
	w.WriteBytes(b[:])
}

// writeDirEntries reserves a directory node's 16-byte header plus
// n*8 bytes of entries, returning the offset of the header (the node's own
// section-relative position) and the offset its entries begin at.
func writeDirEntries(w *Writer, n int) (nodeStart, entriesStart int) {
	nodeStart = w.Pos()
	w.WriteU32(0) // characteristics
	w.WriteU32(0) // timestamp
	w.WriteU16(0) // major version
	w.WriteU16(0) // minor version
	w.WriteU16(0) // number of named entries
	w.WriteU16(uint16(n))
	entriesStart = w.Reserve(n * coffResourceEntrySize)
	return nodeStart, entriesStart
}

// patchDirEntry fills in entry i of a directory node reserved by
// writeDirEntries: id is the raw u32 key (ResourceType, numeric id, or
// language id depending on level); offset is section-relative, with
// subdirFlag set by the caller when it points at another directory node
// rather than a data entry.
func patchDirEntry(w *Writer, entriesStart, i int, id, offset uint32) {
	w.patchU32(entriesStart+i*coffResourceEntrySize, id)
	w.patchU32(entriesStart+i*coffResourceEntrySize+4, offset)
}

// EmitCOFF produces a relocatable COFF object for the given resources,
// following the corrected two-section (`.rsrc$01` directory + `.rsrc$02`
// payload) design spec.md's Design Notes endorse over the single-section
// layout the source material notes as broken (see spec.md §9's Open
// Question). Layout proceeds in the same reserve-then-patch style as
// res.go's writeResRecord, just against two independent section buffers
// instead of one file buffer, which keeps every directory/data-entry
// offset naturally section-relative without a parallel bookkeeping pass.
// logger may be nil; it receives a warning before any out-of-range-length
// error from spec.md §7 is returned, matching EmitRes.
func EmitCOFF(logger *rlog.Helper, target TargetArch, version VersionInfo, icons, groups []Record, manifest []byte) ([]byte, error) {
	tree, err := buildCoffTree(version, icons, groups, manifest)
	if err != nil {
		logger.Warnf("version info record too large: %s", err)
		return nil, err
	}

	types := make([]ResourceType, 0, len(tree))
	for rt := range tree {
		types = append(types, rt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	if len(types) > 0xFFFF {
		logger.Warnf("too many resource types for a single COFF directory level: %d", len(types))
		return nil, ErrTooManyResources
	}

	dir := NewWriter()  // becomes .rsrc$01
	data := NewWriter() // becomes .rsrc$02

	var relocations []coffRelocation
	var payloadSymbols []coffPayloadSymbol

	_, rootEntries := writeDirEntries(dir, len(types))
	for ti, rt := range types {
		ids := make([]uint16, 0, len(tree[rt]))
		for id := range tree[rt] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if len(ids) > 0xFFFF {
			logger.Warnf("too many resource ids of type %d for a single COFF directory level: %d", rt, len(ids))
			return nil, ErrTooManyResources
		}

		idDirStart, idEntries := writeDirEntries(dir, len(ids))
		patchDirEntry(dir, rootEntries, ti, uint32(rt), subdirFlag|uint32(idDirStart))

		for ii, id := range ids {
			payload := tree[rt][id]

			langDirStart, langEntries := writeDirEntries(dir, 1)
			patchDirEntry(dir, idEntries, ii, uint32(id), subdirFlag|uint32(langDirStart))

			dataEntryStart := dir.Pos()
			dataRvaAt := dir.Reserve(4)
			dir.WriteU32(uint32(len(payload))) // size
			dir.WriteU32(0)                    // codepage
			dir.WriteU32(0)                     // reserved, per spec.md §4.D (the
			// original coff2 writer sets this to size again, which we treat as
			// a bug in the source it was distilled from rather than repeat)
			patchDirEntry(dir, langEntries, 0, langUS, uint32(dataEntryStart))

			data.AlignTo(8)
			payloadOffset := data.Pos()
			data.WriteBytes(payload)

			symIndex := uint32(4 + len(payloadSymbols))
			var name [8]byte
			copy(name[:], fmt.Sprintf("$R%06X", payloadOffset))
			payloadSymbols = append(payloadSymbols, coffPayloadSymbol{name: name, offset: uint32(payloadOffset)})
			relocations = append(relocations, coffRelocation{virtualAddress: uint32(dataRvaAt), symbolIndex: symIndex})
		}
	}

	sort.Slice(relocations, func(i, j int) bool { return relocations[i].symbolIndex < relocations[j].symbolIndex })

	dirBytes := dir.Bytes()
	dataBytes := data.Bytes()

	const numSections = 2
	section1Start := coffFileHeaderSize + numSections*coffSectionHeaderSize
	section2Start := section1Start + len(dirBytes)
	relocStart := section2Start + len(dataBytes)
	numRelocs := len(relocations)
	symTableStart := relocStart + numRelocs*coffRelocationSize
	numSymbols := 4 + len(payloadSymbols)

	relocPointer := 0
	if numRelocs > 0 {
		relocPointer = relocStart
	}

	w := NewWriter()

	w.WriteU16(uint16(target))
	w.WriteU16(numSections)
	w.WriteU32(nowUnix())
	w.WriteU32(uint32(symTableStart))
	w.WriteU32(uint32(numSymbols))
	w.WriteU16(0) // size of optional header
	w.WriteU16(imageFile32BitMachine)

	writeSectionHeader := func(name string, rawStart, size, relocsPointer, relocsCount int) {
		writeName8(w, name)
		w.WriteU32(0) // physical address / virtual size
		w.WriteU32(0) // virtual address
		w.WriteU32(uint32(size))
		w.WriteU32(uint32(rawStart))
		w.WriteU32(uint32(relocsPointer))
		w.WriteU32(0) // pointer to line numbers
		w.WriteU16(uint16(relocsCount))
		w.WriteU16(0) // number of line numbers
		w.WriteU32(coffSectionCharacteristics)
	}
	writeSectionHeader(".rsrc$01", section1Start, len(dirBytes), relocPointer, numRelocs)
	writeSectionHeader(".rsrc$02", section2Start, len(dataBytes), 0, 0)

	w.WriteBytes(dirBytes)
	w.WriteBytes(dataBytes)

	for _, r := range relocations {
		w.WriteU32(r.virtualAddress)
		w.WriteU32(r.symbolIndex)
		w.WriteU16(target.relocType())
	}

	writeSectionSymbol := func(name string, sectionNumber uint16, length uint32, relocCount uint16) {
		writeName8(w, name)
		w.WriteU32(0) // value
		w.WriteU16(sectionNumber)
		w.WriteU16(0) // type
		w.WriteU8(imageSymClassStatic)
		w.WriteU8(1) // number of aux symbols

		w.WriteU32(length)
		w.WriteU16(relocCount)
		w.WriteU16(0) // number of linenumbers
		w.Reserve(10) // checksum, number, selection, unused
	}
	writeSectionSymbol(".rsrc$01", 1, uint32(len(dirBytes)), uint16(numRelocs))
	writeSectionSymbol(".rsrc$02", 2, uint32(len(dataBytes)), 0)

	for _, sym := range payloadSymbols {
		w.WriteBytes(sym.name[:])
		w.WriteU32(sym.offset)
		w.WriteU16(2) // section number: every payload lives in .rsrc$02
		w.WriteU16(0) // type
		w.WriteU8(imageSymClassStatic)
		w.WriteU8(0) // number of aux symbols
	}

	w.WriteU32(4) // empty string table: just its own length field

	return w.Bytes(), nil
}
