// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"errors"
	"testing"
)

func TestMetadataSerializeDeserializeRoundTrip(t *testing.T) {
	m := Metadata{"Content-Type": "text/plain", "Filename": "readme.txt"}
	b, err := metadataSerialize(m)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := metadataDeserialize(b)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !metadataEqual(m, got) {
		t.Fatalf("expected %v, got %v", m, got)
	}
}

func TestMetadataSerializeEmptyIsNil(t *testing.T) {
	b, err := metadataSerialize(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil output for empty metadata, got %x", b)
	}
}

func TestMetadataDeserializeTrimsTrailingSpaces(t *testing.T) {
	b := append([]byte(`{"k":"v"}`), ' ', ' ', ' ')
	m, err := metadataDeserialize(b)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m["k"] != "v" {
		t.Fatalf("expected k=v, got %v", m)
	}
}

func TestMetadataPadInSegmentsFitsSlot(t *testing.T) {
	m := Metadata{"k": "v"}
	out, err := metadataPadInSegments(m, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 32 {
		t.Fatalf("expected a 32-byte slot, got %d", len(out))
	}
	got, err := metadataDeserialize(out)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !metadataEqual(m, got) {
		t.Fatalf("expected %v, got %v", m, got)
	}
}

func TestMetadataPadInSegmentsOverflow(t *testing.T) {
	m := Metadata{"k": "a very long value that will not fit in a single 32 byte segment at all"}
	_, err := metadataPadInSegments(m, 1)
	if !errors.Is(err, ErrMetadataOverflow) {
		t.Fatalf("expected ErrMetadataOverflow, got %v", err)
	}
}

func TestMetadataPadInSegmentsEmptyStillOccupiesSlot(t *testing.T) {
	out, err := metadataPadInSegments(nil, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 64 {
		t.Fatalf("expected a 64-byte slot, got %d", len(out))
	}
	for _, b := range out {
		if b != ' ' {
			t.Fatalf("expected an empty metadata slot to be all padding, found %x", b)
		}
	}
}
