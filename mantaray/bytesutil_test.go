// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	mrand "math/rand"
	"testing"
)

func TestXorSymmetry(t *testing.T) {
	key := make([]byte, 32)
	mrand.Read(key)
	data := make([]byte, 130)
	mrand.Read(data)

	encrypted := append([]byte{}, data...)
	xorInPlace(key, encrypted, 0)
	if bytes.Equal(encrypted, data) {
		t.Fatal("expected encrypted bytes to differ from plaintext")
	}

	decrypted := append([]byte{}, encrypted...)
	xorInPlace(key, decrypted, 0)
	if !bytes.Equal(decrypted, data) {
		t.Fatalf("expected round trip to restore original, got %x want %x", decrypted, data)
	}
}

func TestXorZeroKeyIsNoop(t *testing.T) {
	key := make([]byte, 32)
	data := []byte("some arbitrary payload bytes")
	out := append([]byte{}, data...)
	xorInPlace(key, out, 0)
	if !bytes.Equal(out, data) {
		t.Fatalf("expected zero key to be a no-op, got %x want %x", out, data)
	}
}

func TestXorFromOffset(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0xff
	data := make([]byte, 40)
	out := append([]byte{}, data...)
	xorInPlace(key, out, 32)
	for i := 0; i < 32; i++ {
		if out[i] != 0 {
			t.Fatalf("expected bytes before offset to be untouched, got %x at %d", out[i], i)
		}
	}
	if out[32] != 0xff {
		t.Fatalf("expected keystream to restart at offset, got %x", out[32])
	}
}

func TestLongestCommonPrefix(t *testing.T) {
	for _, tc := range []struct {
		a, b, want string
	}{
		{"abcdef", "abcxyz", "abc"},
		{"abc", "abc", "abc"},
		{"abc", "xyz", ""},
		{"", "abc", ""},
	} {
		got := common([]byte(tc.a), []byte(tc.b))
		if string(got) != tc.want {
			t.Fatalf("common(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestIndexBytesAscendingOrder(t *testing.T) {
	idx := &indexBytes{}
	for _, b := range []byte{200, 3, 77, 0, 255} {
		idx.setByte(b)
	}
	var seen []byte
	err := idx.forEach(func(b byte) error {
		seen = append(seen, b)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0, 3, 77, 200, 255}
	if !bytes.Equal(seen, want) {
		t.Fatalf("expected ascending order %v, got %v", want, seen)
	}
}

func TestIndexBytesRoundTrip(t *testing.T) {
	idx := &indexBytes{}
	idx.setByte('a')
	idx.setByte('z')
	b := idx.bytes()

	idx2 := &indexBytes{}
	idx2.fromBytes(b)
	if !idx2.isSet('a') || !idx2.isSet('z') || idx2.isSet('m') {
		t.Fatal("expected round-tripped bitmap to preserve set bits")
	}
}

func TestVersionTagLength(t *testing.T) {
	tag := versionTag("0.2")
	if len(tag) != versionHashSize {
		t.Fatalf("expected version tag of %d bytes, got %d", versionHashSize, len(tag))
	}
	if bytes.Equal(tag, versionTag("1.0")) {
		t.Fatal("expected distinct version tags for distinct versions")
	}
}
