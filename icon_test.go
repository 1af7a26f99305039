// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"testing"
)

func validPNGHeader() []byte {
	b := make([]byte, minIconHeaderLen)
	copy(b[:8], pngSignature[:])
	copy(b[12:16], "IHDR")
	b[24] = 8 // bit depth
	b[25] = 6 // color type: RGBA
	return b
}

func TestNewIconAcceptsValid32bppRGBA(t *testing.T) {
	icon, err := NewIcon(validPNGHeader())
	if err != nil {
		t.Fatalf("NewIcon: %v", err)
	}
	if len(icon.Bytes()) != minIconHeaderLen {
		t.Fatalf("Icon.Bytes() length = %d, want %d", len(icon.Bytes()), minIconHeaderLen)
	}
}

func TestNewIconRejectsNonPNG(t *testing.T) {
	_, err := NewIcon([]byte("not a png, just some bytes padded out long enough"))
	if !errors.Is(err, ErrIconNotPNG) {
		t.Fatalf("err = %v, want ErrIconNotPNG", err)
	}
}

func TestNewIconRejectsTruncated(t *testing.T) {
	_, err := NewIcon(pngSignature[:])
	if !errors.Is(err, ErrIconNotPNG) {
		t.Fatalf("err = %v, want ErrIconNotPNG", err)
	}
}

func TestNewIconRejectsWrongColorType(t *testing.T) {
	b := validPNGHeader()
	b[25] = 2 // color type 2 = truecolor, no alpha
	_, err := NewIcon(b)
	if !errors.Is(err, ErrIconNotRGBA) {
		t.Fatalf("err = %v, want ErrIconNotRGBA", err)
	}
}

func TestNewIconRejectsWrongBitDepth(t *testing.T) {
	b := validPNGHeader()
	b[24] = 4
	_, err := NewIcon(b)
	if !errors.Is(err, ErrIconNotRGBA) {
		t.Fatalf("err = %v, want ErrIconNotRGBA", err)
	}
}
