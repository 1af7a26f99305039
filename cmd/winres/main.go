// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saferwall/winres"
	"github.com/saferwall/winres/buildscript"
)

var (
	iconPaths   []string
	manifest    string
	versionStr  string
	targetStr   string
	format      string
	outPath     string
	productName string
)

func build(cmd *cobra.Command, args []string) error {
	b := winres.NewBuilder(nil)

	target, err := targetFromFlag(targetStr)
	if err != nil {
		return err
	}

	version, err := versionFromFlag(versionStr)
	if err != nil {
		return err
	}
	b.SetVersionInfo(winres.VersionInfo{
		FileVersion:    version,
		ProductVersion: version,
		FileType:       winres.FileTypeExe,
		Strings: map[string]string{
			"ProductName": productName,
		},
	})

	assignedIDs := make([]uint16, 0, len(iconPaths))
	for _, path := range iconPaths {
		data, err := buildscript.LoadIconFile(path)
		if err != nil {
			return fmt.Errorf("winres: loading icon %s: %w", path, err)
		}
		id, err := b.AddIcon(data)
		if err != nil {
			return fmt.Errorf("winres: adding icon %s: %w", path, err)
		}
		assignedIDs = append(assignedIDs, id)
	}
	if len(assignedIDs) > 0 {
		if err := b.AddIconGroup(1, assignedIDs); err != nil {
			return fmt.Errorf("winres: building icon group: %w", err)
		}
	}

	if manifest != "" {
		data, err := os.ReadFile(manifest)
		if err != nil {
			return fmt.Errorf("winres: reading manifest %s: %w", manifest, err)
		}
		if err := b.SetManifest(string(data)); err != nil {
			return fmt.Errorf("winres: setting manifest: %w", err)
		}
	}

	var out []byte
	switch format {
	case "res":
		out, err = b.CompileToRes()
		if err != nil {
			return fmt.Errorf("winres: compiling res: %w", err)
		}
	case "coff":
		out, err = b.CompileToCOFF(target)
		if err != nil {
			return fmt.Errorf("winres: compiling COFF: %w", err)
		}
	default:
		return fmt.Errorf("winres: unknown --format %q (want res or coff)", format)
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("winres: writing %s: %w", outPath, err)
	}
	return nil
}

func targetFromFlag(s string) (winres.TargetArch, error) {
	switch s {
	case "", "x86_64", "amd64":
		return winres.ArchAMD64, nil
	case "i386", "x86":
		return winres.ArchI386, nil
	case "aarch64", "arm64":
		return winres.ArchAarch64, nil
	default:
		return 0, fmt.Errorf("winres: unknown --target %q", s)
	}
}

func versionFromFlag(s string) (winres.VersionNumber, error) {
	var v [4]uint16
	n, err := fmt.Sscanf(s, "%d.%d.%d.%d", &v[0], &v[1], &v[2], &v[3])
	if err != nil && n == 0 {
		return winres.VersionNumber{}, fmt.Errorf("winres: invalid --version %q, want major.minor.build.patch", s)
	}
	return winres.VersionNumber{Major: v[0], Minor: v[1], Build: v[2], Patch: v[3]}, nil
}

func main() {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Compile an icon, version info, and manifest into a Windows resource artifact",
		Long:  "winres build compiles embedded resources into a .res script or a relocatable COFF object, built for linking into a Windows executable.",
		RunE:  build,
	}
	buildCmd.Flags().StringArrayVar(&iconPaths, "icon", nil, "path to a PNG icon (repeatable)")
	buildCmd.Flags().StringVar(&manifest, "manifest", "", "path to an XML application manifest")
	buildCmd.Flags().StringVar(&versionStr, "version", "0.0.0.0", "file/product version, major.minor.build.patch")
	buildCmd.Flags().StringVar(&productName, "product-name", "", "ProductName string entry")
	buildCmd.Flags().StringVar(&targetStr, "target", "x86_64", "target architecture: x86_64, i386, aarch64")
	buildCmd.Flags().StringVar(&format, "format", "coff", "output format: res or coff")
	buildCmd.Flags().StringVarP(&outPath, "out", "o", "out.syso", "output file path")

	rootCmd := &cobra.Command{
		Use:   "winres",
		Short: "A Windows PE resource artifact generator",
		Long:  "winres compiles icons, version info and an application manifest into a .res resource script or a relocatable COFF object, built for embedding in a Windows executable.",
	}
	rootCmd.AddCommand(buildCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
