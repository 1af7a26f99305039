// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"encoding/binary"
	"fmt"
)

// ParsedRecord is one resource record read back out of an emitted .res or
// COFF artifact, used by tests to check the round-trip readability
// property (spec.md §8 invariant 5): "a minimal reader must parse the
// produced output; type/id tuples and payload sizes must match."
type ParsedRecord struct {
	Type ResourceType
	ID   uint16
	Size int
}

// ParseRes walks a .res byte stream the way a minimal reader would,
// returning every non-sentinel record it finds. It validates only the
// back-patched lengths and the 0xFFFF ident markers of spec.md §4.C; it
// does not check alignment, it skips to the next 4-byte boundary after each
// record. It is deliberately not a general resource-file parser (that's an
// explicit non-goal).
func ParseRes(data []byte) ([]ParsedRecord, error) {
	var records []ParsedRecord
	pos := 0
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("winres: truncated .res record header at offset %d", pos)
		}
		dataSize := binary.LittleEndian.Uint32(data[pos:])
		headerSize := binary.LittleEndian.Uint32(data[pos+4:])
		recordStart := pos
		if headerSize < 8 || int(headerSize) < 8 {
			return nil, fmt.Errorf("winres: implausible header size %d at offset %d", headerSize, pos)
		}

		hdr := pos + 8
		if hdr+4 > len(data) || binary.LittleEndian.Uint16(data[hdr:]) != 0xFFFF {
			return nil, fmt.Errorf("winres: missing type ident marker at offset %d", hdr)
		}
		rt := ResourceType(binary.LittleEndian.Uint16(data[hdr+2:]))

		hdr += 4
		if hdr+4 > len(data) || binary.LittleEndian.Uint16(data[hdr:]) != 0xFFFF {
			return nil, fmt.Errorf("winres: missing id ident marker at offset %d", hdr)
		}
		id := binary.LittleEndian.Uint16(data[hdr+2:])

		dataStart := recordStart + int(headerSize)
		dataEnd := dataStart + int(dataSize)
		if dataEnd > len(data) {
			return nil, fmt.Errorf("winres: record data [%d:%d] exceeds buffer of length %d", dataStart, dataEnd, len(data))
		}

		if rt != RTNone {
			records = append(records, ParsedRecord{Type: rt, ID: id, Size: int(dataSize)})
		}

		pos = dataEnd
		if pad := pos % 4; pad != 0 {
			pos += 4 - pad
		}
	}
	return records, nil
}

// ParseCOFF walks the three-level Type->Id->Language resource directory
// tree of a COFF object produced by EmitCOFF, resolving each data entry's
// relocation against the symbol table to recover a payload size, and
// checking invariant 3 from spec.md §8 (every relocation references a
// valid symbol index; every symbol-resolved location lies within section
// bounds).
func ParseCOFF(data []byte) ([]ParsedRecord, error) {
	if len(data) < coffFileHeaderSize {
		return nil, fmt.Errorf("winres: truncated COFF file header")
	}
	numSections := int(binary.LittleEndian.Uint16(data[2:]))
	symTablePtr := binary.LittleEndian.Uint32(data[8:])
	numSymbols := binary.LittleEndian.Uint32(data[12:])
	if numSections < 1 || numSections > 2 {
		return nil, fmt.Errorf("winres: unexpected section count %d", numSections)
	}

	type sectionInfo struct {
		rawPtr, rawSize       uint32
		relocPtr, numRelocs uint32
	}
	sections := make([]sectionInfo, numSections)
	for i := 0; i < numSections; i++ {
		base := coffFileHeaderSize + i*coffSectionHeaderSize
		if base+coffSectionHeaderSize > len(data) {
			return nil, fmt.Errorf("winres: truncated section header %d", i)
		}
		sections[i] = sectionInfo{
			rawSize:   binary.LittleEndian.Uint32(data[base+16:]),
			rawPtr:    binary.LittleEndian.Uint32(data[base+20:]),
			relocPtr:  binary.LittleEndian.Uint32(data[base+24:]),
			numRelocs: uint32(binary.LittleEndian.Uint16(data[base+32:])),
		}
	}
	dirSection := sections[0]
	dataSection := sections[len(sections)-1]

	// symbol values, indexed by symbol index (auxiliary records occupy a
	// slot too, but are never referenced by a relocation's symbol_index).
	symbolValue := make(map[uint32]uint32)
	pos := int(symTablePtr)
	for i := uint32(0); i < numSymbols; i++ {
		if pos+coffSymbolSize > len(data) {
			return nil, fmt.Errorf("winres: truncated symbol table entry %d", i)
		}
		value := binary.LittleEndian.Uint32(data[pos+8:])
		numAux := data[pos+17]
		symbolValue[i] = value
		pos += coffSymbolSize
		for a := uint8(0); a < numAux; a++ {
			i++
			pos += coffSymbolSize
		}
	}

	relocs := make(map[uint32]uint32) // virtual_address -> symbol_index
	rpos := int(dirSection.relocPtr)
	for i := uint32(0); i < dirSection.numRelocs; i++ {
		if rpos+coffRelocationSize > len(data) {
			return nil, fmt.Errorf("winres: truncated relocation %d", i)
		}
		va := binary.LittleEndian.Uint32(data[rpos:])
		symIdx := binary.LittleEndian.Uint32(data[rpos+4:])
		if _, ok := symbolValue[symIdx]; !ok {
			return nil, fmt.Errorf("winres: relocation references unknown symbol index %d", symIdx)
		}
		relocs[va] = symIdx
		rpos += coffRelocationSize
	}

	dirStart := int(dirSection.rawPtr)
	dirEnd := dirStart + int(dirSection.rawSize)
	if dirEnd > len(data) {
		return nil, fmt.Errorf("winres: directory section exceeds file bounds")
	}
	dir := data[dirStart:dirEnd]

	readDirHeader := func(off int) (nEntries int, entriesStart int, err error) {
		if off+coffDirHeaderSize > len(dir) {
			return 0, 0, fmt.Errorf("winres: truncated directory node at %d", off)
		}
		n := int(binary.LittleEndian.Uint16(dir[off+14:]))
		return n, off + coffDirHeaderSize, nil
	}
	readEntry := func(entriesStart, i int) (id, offset uint32, isDir bool, err error) {
		base := entriesStart + i*coffResourceEntrySize
		if base+8 > len(dir) {
			return 0, 0, false, fmt.Errorf("winres: truncated directory entry at %d", base)
		}
		id = binary.LittleEndian.Uint32(dir[base:])
		raw := binary.LittleEndian.Uint32(dir[base+4:])
		return id, raw &^ subdirFlag, raw&subdirFlag != 0, nil
	}

	var records []ParsedRecord
	nTypes, typeEntries, err := readDirHeader(0)
	if err != nil {
		return nil, err
	}
	for ti := 0; ti < nTypes; ti++ {
		typeID, idDirOffset, isDir, err := readEntry(typeEntries, ti)
		if err != nil {
			return nil, err
		}
		if !isDir {
			return nil, fmt.Errorf("winres: type-level entry %d is not a subdirectory", ti)
		}

		nIDs, idEntries, err := readDirHeader(int(idDirOffset))
		if err != nil {
			return nil, err
		}
		for ii := 0; ii < nIDs; ii++ {
			resID, langDirOffset, isDir, err := readEntry(idEntries, ii)
			if err != nil {
				return nil, err
			}
			if !isDir {
				return nil, fmt.Errorf("winres: id-level entry %d is not a subdirectory", ii)
			}

			nLangs, langEntries, err := readDirHeader(int(langDirOffset))
			if err != nil {
				return nil, err
			}
			for li := 0; li < nLangs; li++ {
				_, dataEntryOffset, isDir, err := readEntry(langEntries, li)
				if err != nil {
					return nil, err
				}
				if isDir {
					return nil, fmt.Errorf("winres: language-level entry %d unexpectedly points at a subdirectory", li)
				}

				if int(dataEntryOffset)+16 > len(dir) {
					return nil, fmt.Errorf("winres: truncated data entry at %d", dataEntryOffset)
				}
				size := binary.LittleEndian.Uint32(dir[dataEntryOffset+4:])

				symIdx, ok := relocs[dataEntryOffset]
				if !ok {
					return nil, fmt.Errorf("winres: no relocation found for data entry at %d", dataEntryOffset)
				}
				payloadOffset := symbolValue[symIdx]
				if int(payloadOffset)+int(size) > int(dataSection.rawSize) {
					return nil, fmt.Errorf("winres: payload for type %d id %d exceeds .rsrc$02 bounds", typeID, resID)
				}

				records = append(records, ParsedRecord{
					Type: ResourceType(typeID),
					ID:   uint16(resID),
					Size: int(size),
				})
			}
		}
	}
	return records, nil
}
