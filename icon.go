// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// Errors returned by NewIcon. These are input validation failures per
// spec.md §7: surfaced at the builder boundary, before emission begins.
var (
	// ErrIconNotPNG is returned when the icon bytes are shorter than the
	// PNG header, don't carry a PNG signature, or lack the IHDR tag.
	ErrIconNotPNG = errors.New("winres: icon data is not a PNG image")

	// ErrIconNotRGBA is returned when the PNG signature is present but the
	// IHDR bit-depth/color-type pair isn't 32bpp RGBA.
	ErrIconNotRGBA = errors.New("winres: icon PNG is not 32bpp RGBA (bit-depth=8, color-type=6)")
)

// pngSignature is the 8-byte magic every PNG file starts with.
var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// minIconHeaderLen is the number of leading bytes NewIcon needs to see to
// validate a PNG signature, IHDR tag, and bit-depth/color-type fields.
const minIconHeaderLen = 26

// NewIcon validates data as a 32bpp RGBA PNG and wraps it as an Icon. Per
// spec.md §3, no decoding ever happens here — these are the only bytes
// this package inspects; the rest of the file becomes the Icon resource
// payload verbatim.
//
// The PNG signature check is first narrowed with
// github.com/gabriel-vasile/mimetype (the same sniffing library the
// teacher's icon.go reaches for via mimetype.Detect, there as a prelude to
// full pixel decoding which this package never does) before the exact byte
// offsets spec.md §3 names are checked directly.
func NewIcon(data []byte) (Icon, error) {
	if len(data) < minIconHeaderLen {
		return Icon{}, fmt.Errorf("%w: only %d bytes", ErrIconNotPNG, len(data))
	}
	if !mimetype.Detect(data).Is("image/png") {
		return Icon{}, ErrIconNotPNG
	}
	if [8]byte(data[:8]) != pngSignature {
		return Icon{}, ErrIconNotPNG
	}
	if string(data[12:16]) != "IHDR" {
		return Icon{}, ErrIconNotPNG
	}

	bitDepth := data[24]
	colorType := data[25]
	if bitDepth != 8 || colorType != 6 {
		return Icon{}, ErrIconNotRGBA
	}

	return Icon{data: data}, nil
}
