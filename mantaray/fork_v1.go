// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import "fmt"

// forkV1 is the v1.0 edge record: a branch prefix paired with the child
// node it leads to. The wire reference always names the child mantaray
// node's own storage chunk, never the child's entry value.
type forkV1 struct {
	prefix []byte
	node   *NodeV1
}

const (
	nodeV1PrefixMax     = 31
	nodeV1ContinuedFlag = nodeV1PrefixMax + 1 // 32: prefixLength signalling overflow
	forkV1PrefixLenSize = 1
	forkV1HeaderSize    = forkV1PrefixLenSize + nodeV1PrefixMax // 32
	nodeV1RefSize       = 32                                    // node-to-node references are always plain chunk addresses
)

// bytes serializes the fork: prefixLength (nodeV1ContinuedFlag if the
// stored prefix itself fills the 31-byte ceiling and the child is a
// continuous node carrying the overflow), the zero-padded 31-byte prefix,
// the child node's reference, then the parent-declared fixed-size fork
// metadata slot (omitted when segSize is 0). A continuous child re-homed
// under a shorter prefix by a later split no longer qualifies: the
// ceiling check keeps that case from wrongly emitting the continuation
// flag over a short, zero-padded prefix. The child must already have been
// saved.
func (f *forkV1) bytes(segSize int) ([]byte, error) {
	if f.node.ref == nil {
		return nil, fmt.Errorf("%w: fork node without reference", ErrMalformedFormat)
	}

	out := make([]byte, 0, forkV1HeaderSize+nodeV1RefSize+segSize*32)

	prefixLen := len(f.prefix)
	wireLen := prefixLen
	if f.node.isContinuousNode && prefixLen == nodeV1PrefixMax {
		wireLen = nodeV1ContinuedFlag
	}
	out = append(out, uint8(wireLen))

	prefixBytes := make([]byte, nodeV1PrefixMax)
	copy(prefixBytes, f.prefix)
	out = append(out, prefixBytes...)

	out = append(out, f.node.ref...)

	if segSize > 0 {
		metaSlot, err := metadataPadInSegments(f.node.forkMetadata, segSize)
		if err != nil {
			return nil, err
		}
		out = append(out, metaSlot...)
	}

	return out, nil
}

// fromBytes deserializes one fork record. prefixLength greater than
// nodeV1PrefixMax marks the child as a continuous node carrying the
// overflow bytes in its own single fork. It returns the number of bytes
// consumed.
func (f *forkV1) fromBytes(b []byte, segSize int) (int, error) {
	recordSize := forkV1HeaderSize + nodeV1RefSize + segSize*32
	if len(b) < recordSize {
		return 0, fmt.Errorf("%w: fork record truncated", ErrMalformedFormat)
	}

	wireLen := int(b[0])
	continuous := false
	prefixLen := wireLen
	switch {
	case wireLen > nodeV1PrefixMax:
		continuous = true
		prefixLen = nodeV1PrefixMax
	case wireLen == 0:
		return 0, fmt.Errorf("%w: invalid prefix length %d", ErrMalformedFormat, wireLen)
	}

	f.prefix = append([]byte{}, b[forkV1PrefixLenSize:forkV1PrefixLenSize+prefixLen]...)

	ref := append([]byte{}, b[forkV1HeaderSize:forkV1HeaderSize+nodeV1RefSize]...)
	n := NewNodeRefV1(ref)
	n.isContinuousNode = continuous
	offset := forkV1HeaderSize + nodeV1RefSize

	if segSize > 0 {
		meta, err := metadataDeserialize(b[offset : offset+segSize*32])
		if err != nil {
			return 0, err
		}
		n.forkMetadata = meta
		offset += segSize * 32
	}

	f.node = n
	return offset, nil
}
