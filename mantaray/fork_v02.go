// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import "fmt"

// forkV02 is the v0.2 edge record: a branch prefix paired with the child
// node it leads to. On the wire the reference field names the storage
// chunk holding the child's own serialized node; the child's entry and
// further forks are only known once that chunk is loaded.
type forkV02 struct {
	prefix []byte
	node   *NodeV02
}

const (
	forkV02TypeSize   = 1
	forkV02PrefixSize = 1
	forkV02HeaderSize = forkV02TypeSize + forkV02PrefixSize // 2
	forkV02PreRefSize = 32
	nodeV02PrefixMax  = forkV02PreRefSize - forkV02HeaderSize // 30
)

// bytes serializes the fork: the child's nodeType, prefixLength,
// zero-padded prefix, the child node's reference, then, iff the child's
// nodeType has the withMetadata bit, a big-endian length prefix and JSON.
// The child must already have been saved (node.ref set).
func (f *forkV02) bytes(refBytesSize int) ([]byte, error) {
	if f.node.ref == nil {
		return nil, fmt.Errorf("%w: fork node without reference", ErrMalformedFormat)
	}

	out := make([]byte, 0, forkV02PreRefSize+refBytesSize)
	out = append(out, f.node.nodeType)
	out = append(out, uint8(len(f.prefix)))

	prefixBytes := make([]byte, nodeV02PrefixMax)
	copy(prefixBytes, f.prefix)
	out = append(out, prefixBytes...)

	ref := make([]byte, refBytesSize)
	copy(ref, f.node.ref)
	out = append(out, ref...)

	if f.node.isWithMetadataType() {
		metaBytes, err := metadataSerialize(f.node.metadata)
		if err != nil {
			return nil, err
		}
		lenBytes := make([]byte, 2)
		putUint16(lenBytes, uint16(len(metaBytes)))
		out = append(out, lenBytes...)
		out = append(out, metaBytes...)
	}

	return out, nil
}

// fromBytes deserializes a fork header plus its child reference, and, if
// the nodeType byte declares withMetadata, the trailing length-prefixed
// JSON. The resulting child is a reference-only stub: its entry and forks
// remain unmaterialized until load() fetches its chunk. It returns the
// number of bytes consumed.
func (f *forkV02) fromBytes(b []byte, refBytesSize int) (int, error) {
	if len(b) < forkV02PreRefSize+refBytesSize {
		return 0, fmt.Errorf("%w: fork header truncated", ErrMalformedFormat)
	}
	nodeType := b[0]
	prefixLen := int(b[1])
	if prefixLen == 0 || prefixLen > nodeV02PrefixMax {
		return 0, fmt.Errorf("%w: invalid prefix length %d", ErrMalformedFormat, prefixLen)
	}

	f.prefix = append([]byte{}, b[forkV02HeaderSize:forkV02HeaderSize+prefixLen]...)

	ref := append([]byte{}, b[forkV02PreRefSize:forkV02PreRefSize+refBytesSize]...)
	n := NewNodeRefV02(ref)
	n.nodeType = nodeType
	n.refBytesSize = refBytesSize
	offset := forkV02PreRefSize + refBytesSize

	if nodeTypeIsWithMetadataType(nodeType) {
		if len(b) < offset+2 {
			return 0, fmt.Errorf("%w: fork metadata length truncated", ErrMalformedFormat)
		}
		metaLen := int(uint16At(b[offset:]))
		offset += 2
		if len(b) < offset+metaLen {
			return 0, fmt.Errorf("%w: fork metadata truncated", ErrMalformedFormat)
		}
		meta, err := metadataDeserialize(b[offset : offset+metaLen])
		if err != nil {
			return 0, err
		}
		n.metadata = meta
		offset += metaLen
	}

	f.node = n
	return offset, nil
}
