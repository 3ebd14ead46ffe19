// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/codec"
	"github.com/bureau-foundation/formparse/lib/version"
)

func versionCommand(std streams) *cli.Command {
	var format string
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "formparse version [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.StringVarP(&format, "format", "f", "text", "output format: text, json, or cbor")
			flagSet.BoolVar(&full, "full", false, "include the path and digest of the running binary")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Usage("version takes no arguments, got %q", args[0])
			}
			report := version.Current()
			if full {
				sum, path, err := version.SelfDigest()
				if err != nil {
					return cli.Internal("%w", err)
				}
				report.Binary, report.Digest = path, sum
			}
			if format == "text" {
				if full {
					_, err := fmt.Fprintf(std.stdout, "%s\n%s  %s\n", version.Full(), report.Digest, report.Binary)
					return err
				}
				_, err := fmt.Fprintln(std.stdout, version.Full())
				return err
			}
			encoding, err := codec.ParseFormat(format)
			if err != nil {
				return cli.Usage("--format: %w", err)
			}
			if encoding.Binary() && cli.IsTerminal(std.stdout) {
				return cli.Usage("refusing to write CBOR to a terminal")
			}
			return codec.Encode(std.stdout, encoding, report)
		},
	}
}
