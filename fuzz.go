// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

// Fuzz exercises icon validation against arbitrary input, the go-fuzz
// entry point convention the teacher's own fuzz.go follows for its parser.
// There is no resource-file parser in this package (that's an explicit
// non-goal), so icon ingestion — the one place arbitrary bytes cross a
// validation boundary — takes its place.
func Fuzz(data []byte) int {
	if _, err := NewIcon(data); err != nil {
		return 0
	}
	return 1
}
