// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import "github.com/saferwall/winres/rlog"

// EmitRes produces the .res byte stream for the given resources: the
// legacy resource-script output format historically produced by
// Microsoft's Resource Compiler (spec.md §4.C, §6). Emission order is the
// conventional None-sentinel, then VersionInfo, then every Icon in
// ascending registration order, then every IconGroup, then the Manifest if
// present — matching spec.md §4.C "Emission order for a full artifact".
// logger may be nil; it receives a warning before any out-of-range-length
// error from spec.md §7 is returned, the same place file.go logs before
// surfacing a parse error.
func EmitRes(logger *rlog.Helper, version VersionInfo, icons []Record, groups []Record, manifest []byte) ([]byte, error) {
	versionPayload, err := buildVersionInfoPayload(version)
	if err != nil {
		logger.Warnf("version info record too large: %s", err)
		return nil, err
	}

	w := NewWriter()

	writeResRecord(w, RTNone, 0, nil)
	writeResRecord(w, RTVersion, 1, versionPayload)

	for _, icon := range icons {
		writeResRecord(w, RTIcon, icon.ID, icon.Data)
	}
	for _, group := range groups {
		writeResRecord(w, RTGroupIcon, group.ID, group.Data)
	}
	if manifest != nil {
		writeResRecord(w, RTManifest, 1, manifest)
	}

	return w.Bytes(), nil
}

// writeResRecord writes one length-prefixed .res record per spec.md §4.C:
//
//	u32 data_size        (back-patched)
//	u32 header_size       (back-patched)
//	u16 0xFFFF, u16 type
//	u16 0xFFFF, u16 id
//	align 4
//	u32 version = 0
//	u16 memory-flags
//	u16 language
//	u32 data-version = 0
//	u32 characteristics = 0
//	payload bytes
//	align 4
func writeResRecord(w *Writer, rt ResourceType, id uint16, data []byte) {
	recordStart := w.Pos()
	dataSizeAt := w.Reserve(4)
	headerSizeAt := w.Reserve(4)

	w.WriteU16(0xFFFF)
	w.WriteU16(uint16(rt))
	w.WriteU16(0xFFFF)
	w.WriteU16(id)
	w.AlignTo(4)

	w.WriteU32(0) // format version
	w.WriteU16(rt.memoryFlags())
	if rt == RTNone {
		w.WriteU16(0)
	} else {
		w.WriteU16(langUS)
	}
	w.WriteU32(0) // data version
	w.WriteU32(0) // characteristics

	headerLen := w.Pos() - recordStart
	w.patchU32(headerSizeAt, uint32(headerLen))

	dataStart := w.Pos()
	w.WriteBytes(data)
	dataLen := w.Pos() - dataStart
	w.patchU32(dataSizeAt, uint32(dataLen))

	w.AlignTo(4)
}
