// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package uploadstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/formparse/lib/digest"
	"github.com/bureau-foundation/formparse/lib/formdata"
)

// ErrDigestMismatch is returned by [Store.Load] when a stored payload
// no longer hashes to the digest recorded at save time.
var ErrDigestMismatch = errors.New("uploadstore: payload digest mismatch")

// CompressionAuto selects the algorithm per upload.
const CompressionAuto = "auto"

// Config configures a Store.
type Config struct {
	// Directory receives the stored payloads and the manifest. It is
	// created if missing.
	Directory string

	// Compression is "none" (or empty), "lz4", "zstd", or "auto".
	Compression string

	// Logger receives one Debug record per saved upload. Nil is
	// silent.
	Logger *slog.Logger
}

// Entry describes one stored upload.
type Entry struct {
	Field       string         `json:"field"`
	Filename    string         `json:"filename,omitempty"`
	ContentType string         `json:"content_type"`
	Stored      string         `json:"stored"`
	Size        int64          `json:"size"`
	StoredSize  int64          `json:"stored_size"`
	Compression CompressionTag `json:"compression"`
	Digest      digest.Digest  `json:"digest"`
}

// Store writes uploads into one directory. It is safe for concurrent
// use.
type Store struct {
	directory   string
	compression CompressionTag
	auto        bool
	logger      *slog.Logger

	writeMu sync.Mutex
}

// New validates config and prepares the directory.
func New(config Config) (*Store, error) {
	if config.Directory == "" {
		return nil, errors.New("uploadstore: directory is required")
	}
	store := &Store{directory: config.Directory, logger: config.Logger}
	switch config.Compression {
	case "", "none":
	case CompressionAuto:
		store.auto = true
	default:
		tag, err := ParseCompressionTag(config.Compression)
		if err != nil {
			return nil, fmt.Errorf("uploadstore: %w", err)
		}
		store.compression = tag
	}
	if store.logger == nil {
		store.logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("uploadstore: creating %s: %w", config.Directory, err)
	}
	return store, nil
}

// Directory returns the store's directory.
func (s *Store) Directory() string { return s.directory }

// Save stores one file part and returns its entry.
func (s *Store) Save(file *formdata.File) (Entry, error) {
	payload, tag, err := compressAuto(file.Content, file.ContentType, s.compression, s.auto)
	if err != nil {
		return Entry{}, fmt.Errorf("compressing %q: %w", file.Filename, err)
	}
	entry := Entry{
		Field:       file.Name,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Stored:      uuid.NewString() + sanitizeExtension(file.Filename),
		Size:        file.Size(),
		StoredSize:  int64(len(payload)),
		Compression: tag,
		Digest:      digest.Sum(file.Content),
	}
	if err := s.writeAtomic(entry.Stored, payload); err != nil {
		return Entry{}, err
	}
	s.logger.Debug("upload stored",
		"field", entry.Field,
		"filename", entry.Filename,
		"stored", entry.Stored,
		"size", entry.Size,
		"stored_size", entry.StoredSize,
		"compression", entry.Compression.String(),
	)
	return entry, nil
}

// SaveForm stores every file in form, in sorted field order.
func (s *Store) SaveForm(form *formdata.Form) ([]Entry, error) {
	var entries []Entry
	for _, name := range form.FileNames() {
		for _, file := range form.File[name] {
			entry, err := s.Save(file)
			if err != nil {
				return entries, err
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Load reads a stored payload back, decompresses it, and verifies its
// digest.
func (s *Store) Load(entry Entry) ([]byte, error) {
	path, err := s.path(entry.Stored)
	if err != nil {
		return nil, err
	}
	stored, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stored upload: %w", err)
	}
	if int64(len(stored)) != entry.StoredSize {
		return nil, fmt.Errorf("stored upload %s is %d bytes, manifest records %d",
			entry.Stored, len(stored), entry.StoredSize)
	}
	content, err := decompress(stored, entry.Compression, entry.Size)
	if err != nil {
		return nil, fmt.Errorf("stored upload %s: %w", entry.Stored, err)
	}
	if got := digest.Sum(content); got != entry.Digest {
		return nil, fmt.Errorf("%w: %s has %s, manifest records %s", ErrDigestMismatch, entry.Stored, got, entry.Digest)
	}
	return content, nil
}

// path resolves a stored name inside the directory. Manifests are
// read from disk, so the name must be a single plain path element.
func (s *Store) path(stored string) (string, error) {
	if stored == "" || stored == "." || stored == ".." || strings.ContainsAny(stored, `/\`) {
		return "", fmt.Errorf("invalid stored name %q", stored)
	}
	return filepath.Join(s.directory, stored), nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tmpFile, err := os.CreateTemp(s.directory, "upload-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.directory, name)); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}

	success = true
	return nil
}

// maxExtensionLength bounds the extension kept from a client filename.
const maxExtensionLength = 16

// sanitizeExtension returns the lowercased extension of a client
// filename, dot included, when it is short and purely alphanumeric.
// Otherwise it returns "". Both separators count since clients send
// Windows paths.
func sanitizeExtension(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	dot := strings.LastIndexByte(filename, '.')
	if dot <= 0 {
		return ""
	}
	extension := filename[dot+1:]
	if extension == "" || len(extension) > maxExtensionLength {
		return ""
	}
	for i := 0; i < len(extension); i++ {
		c := extension[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return ""
		}
	}
	return "." + strings.ToLower(extension)
}
