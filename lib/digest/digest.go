// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a domain-separated BLAKE3 digest.
type Digest [32]byte

// uploadDomainKey is the BLAKE3 key for upload payloads: the ASCII
// domain name zero-padded to 32 bytes. Changing it invalidates every
// recorded digest.
var uploadDomainKey = [32]byte{
	'f', 'o', 'r', 'm', 'p', 'a', 'r', 's', 'e', '.', 'u', 'p', 'l', 'o', 'a', 'd',
}

func newHasher() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(uploadDomainKey[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Digest {
	var result Digest
	copy(result[:], hasher.Sum(nil))
	return result
}

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	hasher := newHasher()
	hasher.Write(data)
	return sum(hasher)
}

// SumReader returns the digest of everything read from r.
func SumReader(r io.Reader) (Digest, error) {
	hasher := newHasher()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, err
	}
	return sum(hasher), nil
}

// SumFile streams the file at path through the hash.
func SumFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	result, err := SumReader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return result, nil
}

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero value (no digest recorded).
func (d Digest) IsZero() bool { return d == Digest{} }

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse parses a 64-character hex digest.
func Parse(hexString string) (Digest, error) {
	var result Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return result, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(result) {
		return result, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(result))
	}
	copy(result[:], decoded)
	return result, nil
}
