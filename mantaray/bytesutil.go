// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// keccakHash returns the keccak-256 digest of the concatenation of msgs.
func keccakHash(msgs ...[]byte) ([]byte, error) {
	hasher := sha3.NewLegacyKeccak256()
	for _, msg := range msgs {
		if _, err := hasher.Write(msg); err != nil {
			return nil, err
		}
	}
	return hasher.Sum(nil), nil
}

// versionTag returns the 31-byte version tag used in a node header: the
// first 31 bytes of keccak256("mantaray:" + name). Truncation to 31 (not
// 32) bytes is part of the wire format, not an accident.
func versionTag(name string) []byte {
	sum, err := keccakHash([]byte(versionNamePrefix + name))
	if err != nil {
		// keccak never fails on an in-memory hasher.Write
		panic(err)
	}
	return sum[:versionHashSize]
}

// isZeroKey reports whether every byte of key is zero. A zero obfuscation
// key disables XOR obfuscation entirely.
func isZeroKey(key []byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}

// xorInPlace XORs data[from:] against key, cycling key every 32 bytes,
// starting the keystream back at key[0] at offset from. It is a no-op when
// key is all-zero. Applying it twice with the same key restores the
// original bytes.
func xorInPlace(key, data []byte, from int) {
	if isZeroKey(key) {
		return
	}
	for i := from; i < len(data); i++ {
		data[i] ^= key[(i-from)%len(key)]
	}
}

// common returns the longest common byte prefix of a and b.
func common(a, b []byte) (c []byte) {
	for i := 0; i < len(a) && i < len(b) && a[i] == b[i]; i++ {
		c = append(c, a[i])
	}
	return c
}

// putUint16 writes v as a big-endian 16-bit value into b, which must be at
// least 2 bytes long.
func putUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// uint16At reads a big-endian 16-bit value from the first 2 bytes of b.
func uint16At(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// indexBytes is a 256-bit bitmap over the byte alphabet {0..255}, stored on
// the wire as 32 bytes, bit = byte%8 within byte[byte/8]. It records which
// first-byte keys a node's fork map contains, so forks can be iterated back
// in ascending order without sorting a map.
type indexBytes struct {
	bits [32]byte
}

func (ib *indexBytes) setByte(b byte) {
	ib.bits[b/8] |= 1 << (b % 8)
}

func (ib *indexBytes) isSet(b byte) bool {
	return (ib.bits[b/8]>>(b%8))&1 > 0
}

func (ib *indexBytes) bytes() []byte {
	out := make([]byte, 32)
	copy(out, ib.bits[:])
	return out
}

func (ib *indexBytes) fromBytes(b []byte) {
	copy(ib.bits[:], b)
}

// forEach calls cb for every set byte in strictly ascending order, stopping
// at the first error.
func (ib *indexBytes) forEach(cb func(byte) error) error {
	for i := 0; ; i++ {
		b := byte(i)
		if ib.isSet(b) {
			if err := cb(b); err != nil {
				return err
			}
		}
		if i == 255 {
			return nil
		}
	}
}
