// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueBoundary returns a boundary of the form "prefix-N" where N is
// a monotonically increasing integer, padded so that every call yields
// a token of at least 16 characters.
//
//	boundary := testutil.UniqueBoundary("upload") // "upload-0000000001", ...
func UniqueBoundary(prefix string) string {
	return fmt.Sprintf("%s-%010d", prefix, uniqueCounter.Add(1))
}
