// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command formparse parses, builds, and inspects multipart/form-data
// bodies.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
)

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	// Commands that print their own output return an ExitError; don't
	// add a redundant "error:" line for those.
	if _, ok := err.(*cli.ExitError); !ok {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}

// streams are the process's standard streams, injected so that tests
// can run commands against buffers.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return rootCommand(streams{stdin: stdin, stdout: stdout, stderr: stderr}).Execute(args)
}

func rootCommand(std streams) *cli.Command {
	return &cli.Command{
		Name:       "formparse",
		Summary:    "Parse, build, and inspect multipart/form-data bodies",
		HelpOutput: std.stderr,
		Description: `Parse, build, and inspect multipart/form-data bodies (RFC 7578).

"parse" decodes a captured request body into its fields and files,
optionally extracting the files into a directory. "encode" builds a
body from a JSONC manifest. "inspect" prints CBOR reports and upload
manifests in diagnostic notation.

Exit status is 0 on success, 1 when the input is invalid or an
operation fails, and 2 for command-line usage errors.`,
		Subcommands: []*cli.Command{
			parseCommand(std),
			encodeCommand(std),
			inspectCommand(std),
			versionCommand(std),
		},
		Examples: []cli.Example{
			{
				Description: "Parse a captured body and print its fields",
				Command:     "formparse parse --boundary XyZ body.bin",
			},
			{
				Description: "Parse from stdin using the request's Content-Type",
				Command:     `curl-capture | formparse parse --content-type "multipart/form-data; boundary=XyZ" -`,
			},
			{
				Description: "Build a body from a manifest",
				Command:     "formparse encode --output body.bin upload.jsonc",
			},
		},
	}
}
