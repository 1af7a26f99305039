// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package buildscript is the build-system integration collaborator spec.md
// §6 describes: it reads package metadata and a target triple from the
// environment, loads an icon file from disk, and writes the compiled
// resource artifact plus a linker directive line a host build system can
// consume. None of this is part of the core emitter; it exists so the
// core's inputs can be produced without every caller hand-rolling the same
// environment plumbing.
package buildscript

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/xyproto/env/v2"
	"golang.org/x/mod/semver"

	"github.com/saferwall/winres"
)

// Environment variable names this package reads, named the way the
// teacher names its exported constants in consts.go.
const (
	EnvPackageVersion     = "PACKAGE_VERSION"
	EnvPackageName        = "PACKAGE_NAME"
	EnvPackageDescription = "PACKAGE_DESCRIPTION"
	EnvTarget             = "TARGET"
	EnvOutDir             = "OUT_DIR"
)

// PackageMetadata holds the environment-derived fields a caller combines
// into a winres.VersionInfo.
type PackageMetadata struct {
	Name        string
	Description string
	Version     winres.VersionNumber
	Target      winres.TargetArch
}

// DiscoverMetadata reads PACKAGE_VERSION, PACKAGE_NAME, PACKAGE_DESCRIPTION
// and TARGET from the environment using github.com/xyproto/env/v2 (the
// same library xyproto/flapc and xyproto/vibe67 depend on for defaulted
// env access), validating the version string with golang.org/x/mod/semver
// and resolving the target triple's leading architecture component to a
// winres.TargetArch.
func DiscoverMetadata() (PackageMetadata, error) {
	var meta PackageMetadata
	meta.Name = env.Str(EnvPackageName, "")
	meta.Description = env.Str(EnvPackageDescription, "")

	rawVersion := env.Str(EnvPackageVersion, "v0.0.0")
	version, err := parseSemver(rawVersion)
	if err != nil {
		return meta, fmt.Errorf("buildscript: %s: %w", EnvPackageVersion, err)
	}
	meta.Version = version

	rawTarget := env.Str(EnvTarget, "")
	target, err := parseTargetTriple(rawTarget)
	if err != nil {
		return meta, fmt.Errorf("buildscript: %s: %w", EnvTarget, err)
	}
	meta.Target = target

	return meta, nil
}

// parseSemver turns a "vMAJOR.MINOR.PATCH[-prerelease]" string into a
// VersionNumber, using semver.IsValid/semver.Canonical to normalize before
// splitting on dots. Any prerelease suffix is dropped. The fourth (build)
// component is always 0 since semver itself only carries three numeric
// fields.
func parseSemver(raw string) (winres.VersionNumber, error) {
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return winres.VersionNumber{}, fmt.Errorf("invalid semver %q", raw)
	}

	core := strings.TrimPrefix(semver.Canonical(v), "v")
	core = strings.SplitN(core, "-", 2)[0]
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return winres.VersionNumber{}, fmt.Errorf("expected major.minor.patch, got %q", raw)
	}

	nums := make([]uint16, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return winres.VersionNumber{}, fmt.Errorf("non-numeric version component %q: %w", p, err)
		}
		nums[i] = uint16(n)
	}

	return winres.VersionNumber{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: 0}, nil
}

// parseTargetTriple maps the leading architecture component of a target
// triple (e.g. "x86_64-pc-windows-msvc") to a winres.TargetArch.
func parseTargetTriple(triple string) (winres.TargetArch, error) {
	arch := strings.SplitN(triple, "-", 2)[0]
	switch arch {
	case "x86_64", "amd64":
		return winres.ArchAMD64, nil
	case "i686", "i386", "x86":
		return winres.ArchI386, nil
	case "aarch64", "arm64":
		return winres.ArchAarch64, nil
	default:
		return 0, fmt.Errorf("unrecognized target architecture %q in triple %q", arch, triple)
	}
}

// LoadIconFile memory-maps path with github.com/edsrzf/mmap-go (the same
// library file.go uses to map a PE binary for reading) and copies its
// bytes into a freshly owned slice before unmapping, so the returned bytes
// outlive the mapping and no mapped handle survives past this call — see
// SPEC_FULL.md §5.
func LoadIconFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("buildscript: mmap %s: %w", path, err)
	}
	defer mapped.Unmap()

	owned := make([]byte, len(mapped))
	copy(owned, mapped)
	return owned, nil
}

// WriteOutput writes data to $OUT_DIR/<name>.<ext> and emits a linker
// directive line on out naming that file, the Go-flavored equivalent of a
// cargo:rustc-link-arg directive: "-extldflags=-Wl,<path>".
func WriteOutput(out io.Writer, name, ext string, data []byte) (string, error) {
	dir := env.Str(EnvOutDir, ".")
	path := fmt.Sprintf("%s/%s.%s", dir, name, ext)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("buildscript: write %s: %w", path, err)
	}

	fmt.Fprintf(out, "-extldflags=-Wl,%s\n", path)
	return path, nil
}
