// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/codec"
	"github.com/bureau-foundation/formparse/lib/uploadstore"
)

func inspectCommand(std streams) *cli.Command {
	var verify bool
	return &cli.Command{
		Name:    "inspect",
		Summary: "Show CBOR reports and upload manifests in diagnostic notation",
		Description: `Print a CBOR document (a "parse --format cbor" report, or the
manifest.cbor of an extraction directory) in RFC 8949 diagnostic
notation, one line per data item.

Given a directory, the directory's manifest is shown. With --verify,
every file the manifest lists is read back, decompressed, and checked
against its recorded size and digest.`,
		Usage: "formparse inspect [flags] FILE|DIR|-",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&verify, "verify", false, "check every extracted file against the directory's manifest")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show a saved report",
				Command:     "formparse inspect report.cbor",
			},
			{
				Description: "Verify an extraction directory",
				Command:     "formparse inspect --verify uploads",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Usage("inspect takes exactly one input, got %d arguments", len(args))
			}
			if verify {
				return verifyStore(std.stdout, args[0])
			}
			return inspectCBOR(std, args[0])
		},
	}
}

func inspectCBOR(std streams, source string) error {
	var data []byte
	var err error
	if source == "-" {
		data, err = io.ReadAll(std.stdin)
	} else {
		path := source
		if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
			path = filepath.Join(source, uploadstore.ManifestName)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return cli.Validation("reading %s: %w", source, err)
	}
	if len(data) == 0 {
		return cli.Validation("%s is empty, expected CBOR data", source)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return cli.Validation("%s is not valid CBOR: %w", source, err)
	}
	_, err = io.WriteString(std.stdout, notation)
	return err
}

func verifyStore(w io.Writer, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return cli.Validation("%w", err)
	}
	if !info.IsDir() {
		return cli.Usage("--verify needs an extraction directory, %s is not one", dir)
	}
	entries, err := uploadstore.ReadManifest(dir)
	if err != nil {
		return cli.Validation("%s: %w", dir, err)
	}
	store, err := uploadstore.New(uploadstore.Config{Directory: dir})
	if err != nil {
		return cli.Internal("%w", err)
	}

	failed := 0
	for _, entry := range entries {
		if _, err := store.Load(entry); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s  %s: %v\n", entry.Field, entry.Stored, err)
			continue
		}
		fmt.Fprintf(w, "ok    %s  %s  %s\n", entry.Field, entry.Stored, humanize.IBytes(uint64(entry.Size)))
	}
	if failed > 0 {
		return cli.Validation("%d of %d files in %s failed verification", failed, len(entries), dir)
	}
	return nil
}
