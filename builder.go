// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

import (
	"errors"
	"fmt"
	"os"

	"github.com/saferwall/winres/rlog"
)

// Errors returned while accumulating resources into a Builder, surfaced at
// the builder boundary per spec.md §7 rather than deferred to emission.
var (
	ErrDuplicateGroupID  = errors.New("winres: icon group ID already registered")
	ErrManifestAlreadySet = errors.New("winres: manifest already set")
	ErrUnknownIconInGroup = errors.New("winres: icon group references an icon ID that was never added")
)

// MaxDefaultManifestSize bounds how large a single manifest string the
// Builder accepts, following the teacher's MaxDefault* constant naming in
// consts.go.
const MaxDefaultManifestSize = 1 << 20

// BuilderOptions configures a Builder, mirroring pe.Options's shape in
// file.go: a logger field plus defaulted numeric caps.
type BuilderOptions struct {
	// Logger receives non-fatal warnings before a hard error is returned.
	Logger rlog.Logger

	// MaxManifestSize bounds manifest length in bytes, by default
	// (MaxDefaultManifestSize).
	MaxManifestSize int
}

// Builder accumulates resources (version info, icons, icon groups, a
// manifest) before a terminal CompileToRes or CompileToCOFF call, the Go
// expression of spec.md §4.E's "builder collaborator" interface.
type Builder struct {
	opts *BuilderOptions

	version  VersionInfo
	hasVersion bool

	icons      []Record
	iconIDs    map[uint16]bool
	nextIconID uint16

	groups   []Record
	groupIDs map[uint16]bool

	manifest    []byte
	hasManifest bool

	logger *rlog.Helper
}

// NewBuilder returns an empty Builder. opts may be nil to use defaults.
func NewBuilder(opts *BuilderOptions) *Builder {
	b := &Builder{
		opts:       &BuilderOptions{},
		iconIDs:    make(map[uint16]bool),
		groupIDs:   make(map[uint16]bool),
		nextIconID: iconBaseID,
	}
	if opts != nil {
		b.opts = opts
	}
	if b.opts.MaxManifestSize == 0 {
		b.opts.MaxManifestSize = MaxDefaultManifestSize
	}

	var logger rlog.Logger
	if b.opts.Logger == nil {
		logger = rlog.NewStdLogger(os.Stderr)
		b.logger = rlog.NewHelper(rlog.NewFilter(logger, rlog.FilterLevel(rlog.LevelError)))
	} else {
		b.logger = rlog.NewHelper(b.opts.Logger)
	}
	return b
}

// SetVersionInfo replaces the VersionInfo the builder will emit. Calling it
// more than once overwrites the previous value, matching an "accumulator"
// setter rather than an add-once field.
func (b *Builder) SetVersionInfo(v VersionInfo) {
	b.version = v
	b.hasVersion = true
}

// SetManifest registers the UTF-8 manifest XML text. Per spec.md §4.E a
// manifest may be set at most once.
func (b *Builder) SetManifest(manifest string) error {
	if b.hasManifest {
		b.logger.Warnf("manifest already set, rejecting second call")
		return ErrManifestAlreadySet
	}
	if len(manifest) > b.opts.MaxManifestSize {
		b.logger.Warnf("manifest length %d exceeds MaxManifestSize %d", len(manifest), b.opts.MaxManifestSize)
		return fmt.Errorf("winres: manifest too large: %d bytes", len(manifest))
	}
	b.manifest = []byte(manifest)
	b.hasManifest = true
	return nil
}

// AddIcon validates data as a PNG icon and registers it under an
// internally assigned ID, starting at iconBaseID and incrementing per
// call — the "stable IDs starting from a fixed base (128)" spec.md §4.E
// requires, kept distinct from user-visible IconGroup IDs. It returns the
// assigned ID so the caller can reference it from AddIconGroup.
func (b *Builder) AddIcon(data []byte) (uint16, error) {
	icon, err := NewIcon(data)
	if err != nil {
		b.logger.Warnf("rejecting icon: %s", err)
		return 0, err
	}

	id := b.nextIconID
	b.nextIconID++
	b.iconIDs[id] = true
	b.icons = append(b.icons, Record{Type: RTIcon, ID: id, Data: icon.Bytes()})
	return id, nil
}

// AddIconGroup registers a GRPICONDIR under groupID, referencing
// previously-added icons by the IDs AddIcon returned. groupID is the
// user-visible identifier (e.g. the application's main icon is
// conventionally group 1).
func (b *Builder) AddIconGroup(groupID uint16, iconIDs []uint16) error {
	if b.groupIDs[groupID] {
		b.logger.Warnf("icon group ID %d already registered", groupID)
		return ErrDuplicateGroupID
	}

	entries := make([]IconGroupEntry, 0, len(iconIDs))
	for _, id := range iconIDs {
		if !b.iconIDs[id] {
			b.logger.Warnf("icon group %d references unknown icon ID %d", groupID, id)
			return fmt.Errorf("%w: %d", ErrUnknownIconInGroup, id)
		}
		var size int
		for _, rec := range b.icons {
			if rec.ID == id {
				size = len(rec.Data)
				break
			}
		}
		entries = append(entries, IconGroupEntry{IconID: id, IconSize: size})
	}

	w := NewWriter()
	writeIconGroupPayload(w, entries)

	b.groupIDs[groupID] = true
	b.groups = append(b.groups, Record{Type: RTGroupIcon, ID: groupID, Data: w.Bytes()})
	return nil
}

// CompileToRes emits the legacy .res byte stream for everything
// accumulated so far.
func (b *Builder) CompileToRes() ([]byte, error) {
	return EmitRes(b.logger, b.version, b.icons, b.groups, b.manifestOrNil())
}

// CompileToCOFF emits a relocatable COFF object targeting arch for
// everything accumulated so far.
func (b *Builder) CompileToCOFF(arch TargetArch) ([]byte, error) {
	return EmitCOFF(b.logger, arch, b.version, b.icons, b.groups, b.manifestOrNil())
}

func (b *Builder) manifestOrNil() []byte {
	if !b.hasManifest {
		return nil
	}
	return b.manifest
}
