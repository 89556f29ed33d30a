// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import "fmt"

// referenceSize constants. A reference is either a plain 32-byte chunk
// address or a 64-byte encrypted reference (address + decryption key).
const (
	refPlainSize     = 32
	refEncryptedSize = 64
)

// Reference is an opaque byte identifier produced by the storage layer.
// Mantaray never interprets its contents, only its length.
type Reference []byte

// validateReference fails unless ref has a recognized length. An empty
// reference is valid: it denotes "no entry".
func validateReference(ref Reference) error {
	switch len(ref) {
	case 0, refPlainSize, refEncryptedSize:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidReference, len(ref))
	}
}
