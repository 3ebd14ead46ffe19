// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/formparse/lib/codec"
	"github.com/bureau-foundation/formparse/lib/formdata"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "FORMPARSE_CONFIG"

// Config is the formparse configuration.
type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Extract ExtractConfig `yaml:"extract"`
	Output  OutputConfig  `yaml:"output"`
}

// ParserConfig mirrors formdata.Options.
type ParserConfig struct {
	// Charset is the WHATWG label for text fields.
	// Default: utf-8
	Charset string `yaml:"charset"`

	// Duplicates is "last" or "all".
	// Default: last
	Duplicates string `yaml:"duplicates"`

	// ZeroCopy shares field and file memory with the body.
	ZeroCopy bool `yaml:"zero_copy"`

	// MaxParts bounds the number of parts; negative is unlimited.
	// Default: 1000
	MaxParts int `yaml:"max_parts"`

	// MaxHeaderBytes bounds one part's header block; negative is
	// unlimited.
	// Default: 16KiB
	MaxHeaderBytes Size `yaml:"max_header_bytes"`

	// MaxBodyBytes bounds the whole body; zero is unlimited.
	MaxBodyBytes Size `yaml:"max_body_bytes"`
}

// ExtractConfig configures file extraction.
type ExtractConfig struct {
	// Directory receives extracted files. Empty disables extraction.
	Directory string `yaml:"directory"`

	// Compression is none, lz4, zstd, or auto.
	// Default: none
	Compression string `yaml:"compression"`
}

// OutputConfig configures the report.
type OutputConfig struct {
	// Format is text, json, or cbor.
	// Default: text
	Format string `yaml:"format"`
}

// Size is a byte count that unmarshals from an integer or from a
// human-readable string such as "16KiB" or "10 MB".
type Size int64

// ParseSize parses a byte count: a plain (possibly negative) integer,
// or a human-readable size such as "16KiB" or "10 MB".
func ParseSize(text string) (Size, error) {
	if count, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
		return Size(count), nil
	}
	parsed, err := humanize.ParseBytes(text)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", text, err)
	}
	if parsed > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", text)
	}
	return Size(parsed), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	parsed, err := ParseSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// String formats positive sizes in IEC units.
func (s Size) String() string {
	if s <= 0 {
		return fmt.Sprintf("%d", int64(s))
	}
	return humanize.IBytes(uint64(s))
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			Charset:        formdata.DefaultCharset,
			Duplicates:     formdata.LastWins.String(),
			MaxParts:       formdata.DefaultMaxParts,
			MaxHeaderBytes: formdata.DefaultMaxHeaderBytes,
		},
		Extract: ExtractConfig{
			Compression: "none",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load loads configuration from the file named by FORMPARSE_CONFIG.
//
// There are no fallbacks: if the variable is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your formparse.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path on top of
// [Default]. Environment variables never override file values; the
// only expansion is ${VAR} in extract.directory.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.Extract.Directory = expandVars(cfg.Extract.Directory, map[string]string{
		"HOME": os.Getenv("HOME"),
	})
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var compressionValues = []string{"none", "lz4", "zstd", "auto"}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := formdata.CanonicalCharset(c.Parser.Charset); err != nil {
		errs = append(errs, fmt.Errorf("parser.charset: %w", err))
	}
	if _, err := formdata.ParseDuplicatePolicy(c.Parser.Duplicates); err != nil {
		errs = append(errs, fmt.Errorf("parser.duplicates: %w", err))
	}
	if c.Parser.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("parser.max_body_bytes must not be negative (use 0 for no limit)"))
	}
	if !slices.Contains(compressionValues, c.Extract.Compression) {
		errs = append(errs, fmt.Errorf("extract.compression must be one of: %v", compressionValues))
	}
	if c.Output.Format != "text" {
		if _, err := codec.ParseFormat(c.Output.Format); err != nil {
			errs = append(errs, fmt.Errorf("output.format must be text, json, or cbor: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ParserOptions converts the parser section to formdata.Options. The
// configuration must have passed [Config.Validate].
func (c *Config) ParserOptions() formdata.Options {
	duplicates, _ := formdata.ParseDuplicatePolicy(c.Parser.Duplicates)
	return formdata.Options{
		Charset:        c.Parser.Charset,
		Duplicates:     duplicates,
		ZeroCopy:       c.Parser.ZeroCopy,
		MaxParts:       c.Parser.MaxParts,
		MaxHeaderBytes: int(c.Parser.MaxHeaderBytes),
		MaxBodyBytes:   int64(c.Parser.MaxBodyBytes),
	}
}
