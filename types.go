// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winres

// ResourceType represents a resource type this package knows how to emit.
// Unlike a general purpose resource reader, only the handful of types
// needed to embed icons, version info and a manifest are represented.
type ResourceType uint16

// Predefined Resource Types. Values match the Windows RT_* constants so
// the numeric id written to the resource directory/records matches what
// the RC compiler would have produced.
const (
	RTNone      ResourceType = 0x00
	RTIcon      ResourceType = 0x03
	RTGroupIcon ResourceType = 0x0E
	RTVersion   ResourceType = 0x10
	RTManifest  ResourceType = 0x18
)

// memory flags written into the .res record header. Taken from the
// MOVEABLE/PURE/DISCARDABLE bits the RC compiler assigns per resource type.
const (
	rfMoveable    uint16 = 0x0010
	rfPure        uint16 = 0x0020
	rfDiscardable uint16 = 0x1000
)

// memoryFlags returns the .res header memory-flags word for rt.
func (rt ResourceType) memoryFlags() uint16 {
	switch rt {
	case RTNone:
		return 0
	case RTIcon:
		return rfDiscardable | rfMoveable
	case RTGroupIcon:
		return rfDiscardable | rfMoveable | rfPure
	case RTVersion, RTManifest:
		return rfMoveable | rfPure
	default:
		return 0
	}
}

// String stringifies a resource type, mirroring the teacher's
// ResourceType.String() lookup-table idiom in resource.go.
func (rt ResourceType) String() string {
	rsrcTypeMap := map[ResourceType]string{
		RTNone:      "None",
		RTIcon:      "Icon",
		RTGroupIcon: "Group Icon",
		RTVersion:   "Version",
		RTManifest:  "Manifest",
	}
	if s, ok := rsrcTypeMap[rt]; ok {
		return s
	}
	return "Unknown"
}

// langUS is the only language identifier this package ever emits: US
// English. Multilingual resource tables are an explicit non-goal.
const langUS = 0x0409

// iconBaseID is the first internal Icon resource id the builder assigns.
// It is distinct from the user-visible IconGroup ids so that icon payloads
// and their owning groups never collide in the same numeric-id namespace.
const iconBaseID = 128

// VersionNumber is a four-field (major, minor, patch, build) version, each
// a 16-bit component.
type VersionNumber struct {
	Major uint16
	Minor uint16
	Patch uint16
	Build uint16
}

// FileType describes the general type of file the version resource
// belongs to.
type FileType uint32

// Predefined file types. Only the two the build tooling actually produces
// are represented; FileType is left open for extension.
const (
	FileTypeExe FileType = 1
	FileTypeDll FileType = 2
)

// FileFlags is a bitmask of VS_FF_* flags describing boolean attributes of
// the file, following the teacher's bitmask constant groups (see
// ImageScn* in section.go).
type FileFlags uint32

const (
	FileFlagDebug        FileFlags = 0x01
	FileFlagPrerelease   FileFlags = 0x02
	FileFlagPatched      FileFlags = 0x04
	FileFlagPrivateBuild FileFlags = 0x08
	FileFlagSpecialBuild FileFlags = 0x20
)

// Has reports whether all bits in mask are set in f.
func (f FileFlags) Has(mask FileFlags) bool {
	return f&mask == mask
}

// fileFlagsMask is the VS_FIXEDFILEINFO dwFileFlagsMask: the low six
// VS_FF_* bits. It includes 0x10, which no FileFlag constant above names.
const fileFlagsMask uint32 = 0x3F

// fileOSNTWindows32 is VOS_NT_WINDOWS32, the only FileOS value this
// package emits.
const fileOSNTWindows32 uint32 = 0x00040004

// vsFileInfoSignature is the magic number identifying a VS_FIXEDFILEINFO
// block, matching the teacher's VsFileInfoSignature in version.go.
const vsFileInfoSignature uint32 = 0xFEEF04BD

// TargetArch identifies the PE machine type the COFF emitter writes.
type TargetArch uint16

const (
	ArchI386    TargetArch = 0x014C
	ArchAMD64   TargetArch = 0x8664
	ArchAarch64 TargetArch = 0xAA64
)

// Relocation type constants for the ADDR32NB ("address 32-bit, no base")
// family, one per target machine.
const (
	relocI386DIR32NB  uint16 = 0x0007
	relocAMD64ADDR32NB uint16 = 0x0003
	relocARM64ADDR32NB uint16 = 0x0002
)

// relocType returns the IMAGE_REL_*_ADDR32NB relocation type for arch.
func (a TargetArch) relocType() uint16 {
	switch a {
	case ArchI386:
		return relocI386DIR32NB
	case ArchAMD64:
		return relocAMD64ADDR32NB
	case ArchAarch64:
		return relocARM64ADDR32NB
	default:
		return 0
	}
}

// String stringifies a target architecture, in the same idiom as
// ImageFileHeaderMachineType.String() in the teacher's ntheader.go.
func (a TargetArch) String() string {
	switch a {
	case ArchI386:
		return "I386"
	case ArchAMD64:
		return "x64"
	case ArchAarch64:
		return "ARM64"
	default:
		return "Unknown"
	}
}

// VersionInfo aggregates the fields needed to build a VS_VERSIONINFO
// resource: the fixed-info block plus the ordered string table.
type VersionInfo struct {
	FileVersion    VersionNumber
	ProductVersion VersionNumber
	FileType       FileType
	Flags          FileFlags

	// Strings holds the "key" -> "value" pairs written to the
	// StringFileInfo\000004B0 string table (e.g. "ProductName" ->
	// "My App"). Iteration order is sorted by key so output is
	// deterministic — see sortedStringKeys in payload.go.
	Strings map[string]string
}

// Icon is a validated, opaque PNG-encoded icon payload. The bytes are
// never decoded; only the signature and IHDR header are inspected at
// ingestion (see icon.go).
type Icon struct {
	data []byte
}

// Bytes returns the icon's raw PNG bytes.
func (i Icon) Bytes() []byte { return i.data }

// IconGroupEntry names a sibling Icon resource inside a GRPICONDIR.
type IconGroupEntry struct {
	IconID   uint16
	IconSize int
}

// Record is a single (type, numeric id, payload) resource triple, the unit
// both emitters consume. All identifiers are numeric; no named resources
// are produced.
type Record struct {
	Type ResourceType
	ID   uint16
	Data []byte
}
