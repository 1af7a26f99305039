// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestFilterDropsBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelWarn))
	h := NewHelper(logger)

	h.Warnf("visible %d", 1)
	if !strings.Contains(buf.String(), "visible 1") {
		t.Errorf("expected Warnf output to be logged, got %q", buf.String())
	}

	buf.Reset()
	logger.Log(LevelDebug, "should be dropped")
	if buf.Len() != 0 {
		t.Errorf("expected debug-level entry to be filtered out, got %q", buf.String())
	}
}

func TestHelperNilReceiverIsSafe(t *testing.T) {
	var h *Helper
	h.Warnf("no panic please")
	h.Errorf("no panic please")
}
