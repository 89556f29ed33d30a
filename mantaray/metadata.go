// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is a string-keyed JSON-serializable mapping attached either to a
// node (entry metadata) or to a fork record (fork metadata, v1.0 only).
type Metadata map[string]string

// metadataSerialize JSON-encodes m. A nil or empty mapping serializes to
// nothing; callers that need a fixed-size slot should use
// metadataPadInSegments instead.
func metadataSerialize(m Metadata) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return b, nil
}

// metadataDeserialize trims trailing ASCII spaces and parses the result as
// JSON. A nil result with no error indicates "no metadata present".
func metadataDeserialize(b []byte) (Metadata, error) {
	trimmed := bytes.TrimRight(b, " ")
	if len(trimmed) == 0 {
		return nil, nil
	}
	var m Metadata
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return m, nil
}

// metadataPadInSegments serializes m and pads it with ASCII spaces (0x20)
// up to segmentCount*32 bytes. A nil/empty m still occupies the full slot,
// filled entirely with padding. It fails if the JSON encoding of m does not
// fit within the slot.
func metadataPadInSegments(m Metadata, segmentCount int) ([]byte, error) {
	slotSize := segmentCount * 32
	out := make([]byte, slotSize)
	for i := range out {
		out[i] = ' '
	}
	if len(m) == 0 {
		return out, nil
	}
	b, err := metadataSerialize(m)
	if err != nil {
		return nil, err
	}
	if len(b) > slotSize {
		return nil, fmt.Errorf("%w: metadata is %d bytes, slot is %d", ErrMetadataOverflow, len(b), slotSize)
	}
	copy(out, b)
	return out, nil
}
