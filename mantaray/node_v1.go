// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	"fmt"
)

// NodeV1 is a trie node in the current v1.0 wire format.
type NodeV1 struct {
	obfuscationKey []byte
	ref            Reference // contentAddress; absence means dirty

	hasEntry bool
	encEntry bool
	isEdge   bool

	forkMetadataSegmentSize uint8

	entry        Reference
	metadata     Metadata // node-level metadata
	forkMetadata Metadata // fork-level metadata owned by the parent's edge, carried here to survive rearrangement

	isContinuousNode bool

	forks map[byte]*forkV1
}

const (
	nodeV1ObfuscationKeySize = 32
	nodeV1FeaturesSize       = 1

	nodeFeatureHasEntry = uint8(1) << 0
	nodeFeatureEncEntry = uint8(1) << 1
	nodeFeatureIsEdge   = uint8(1) << 2
	nodeFeatureSegShift = 3
	nodeFeatureSegMask  = uint8(0x1F)
)

// newNodeV1 returns a freshly allocated, empty v1.0 node.
func newNodeV1() *NodeV1 {
	return &NodeV1{forks: make(map[byte]*forkV1)}
}

// NewNodeRefV1 constructs a v1.0 node known only by reference; its state is
// materialized lazily on first access via Load.
func NewNodeRefV1(ref Reference) *NodeV1 {
	return &NodeV1{ref: ref}
}

// SetObfuscationKey installs a 32-byte XOR keystream for this node's wire
// payload. A nil or all-zero key disables obfuscation.
func (n *NodeV1) SetObfuscationKey(key []byte) {
	b := make([]byte, 32)
	copy(b, key)
	n.obfuscationKey = b
	n.makeDirty()
}

// Reference returns the content address this node was last saved under, or
// nil if the node is dirty.
func (n *NodeV1) Reference() Reference { return n.ref }

// Entry returns the value reference stored at this node's path, if any.
func (n *NodeV1) Entry() Reference { return n.entry }

// Metadata returns this node's node-level metadata.
func (n *NodeV1) Metadata() Metadata { return n.metadata }

// ForkMetadata returns the fork-level metadata the parent attached to the
// edge leading to this node.
func (n *NodeV1) ForkMetadata() Metadata { return n.forkMetadata }

// IsEdge reports whether this node has any forks.
func (n *NodeV1) IsEdge() bool { return n.isEdge }

// HasEntry reports whether this node carries an entry reference.
func (n *NodeV1) HasEntry() bool { return n.hasEntry }

// IsEncryptedEntry reports whether the entry is a 64-byte encrypted
// reference.
func (n *NodeV1) IsEncryptedEntry() bool { return n.encEntry }

// IsContinuousNode reports whether this node exists purely to chain the
// overflow bytes of a parent's over-long prefix.
func (n *NodeV1) IsContinuousNode() bool { return n.isContinuousNode }

// ForkMetadataSegmentSize returns the number of 32-byte segments reserved
// for each fork's metadata slot under this node.
func (n *NodeV1) ForkMetadataSegmentSize() uint8 { return n.forkMetadataSegmentSize }

func (n *NodeV1) isDirty() bool { return n.ref == nil }
func (n *NodeV1) makeDirty()    { n.ref = nil }

// IsDirty reports whether this node must be (re)serialized before its
// content address can be trusted.
func (n *NodeV1) IsDirty() bool { return n.isDirty() }

// MakeDirty marks this node as needing re-serialization.
func (n *NodeV1) MakeDirty() { n.makeDirty() }

// Forks returns the fork prefix map keyed by first byte.
func (n *NodeV1) Forks() map[byte]*forkV1 { return n.forks }

func (n *NodeV1) nodeFeatures() uint8 {
	var f uint8
	if n.hasEntry {
		f |= nodeFeatureHasEntry
	}
	if n.encEntry {
		f |= nodeFeatureEncEntry
	}
	if n.isEdge {
		f |= nodeFeatureIsEdge
	}
	f |= (n.forkMetadataSegmentSize & nodeFeatureSegMask) << nodeFeatureSegShift
	return f
}

func (n *NodeV1) setNodeFeatures(f uint8) {
	n.hasEntry = f&nodeFeatureHasEntry != 0
	n.encEntry = f&nodeFeatureEncEntry != 0
	n.isEdge = f&nodeFeatureIsEdge != 0
	n.forkMetadataSegmentSize = (f >> nodeFeatureSegShift) & nodeFeatureSegMask
}

// MarshalBinary serializes the node per the v1.0 wire layout in §4.E,
// applying XOR obfuscation to everything from byte 32 onward.
func (n *NodeV1) MarshalBinary() ([]byte, error) {
	if n.forks == nil {
		return nil, fmt.Errorf("%w: node not loaded", ErrMalformedFormat)
	}
	if n.encEntry && !n.hasEntry {
		return nil, fmt.Errorf("%w: encEntry without hasEntry", ErrMalformedFormat)
	}

	if len(n.obfuscationKey) == 0 {
		n.obfuscationKey = make([]byte, 32)
	}

	out := make([]byte, nodeV1ObfuscationKeySize+versionHashSize+nodeV1FeaturesSize)
	copy(out[0:nodeV1ObfuscationKeySize], n.obfuscationKey)
	copy(out[nodeV1ObfuscationKeySize:nodeV1ObfuscationKeySize+versionHashSize], version1Tag)
	out[nodeV1ObfuscationKeySize+versionHashSize] = n.nodeFeatures()

	if n.hasEntry {
		entrySize := refPlainSize
		if n.encEntry {
			entrySize = refEncryptedSize
		}
		if len(n.entry) != entrySize {
			return nil, fmt.Errorf("%w: entry is %d bytes, expected %d", ErrInvalidReference, len(n.entry), entrySize)
		}
		out = append(out, n.entry...)
	}

	if n.isEdge {
		idx := &indexBytes{}
		for k := range n.forks {
			idx.setByte(k)
		}
		out = append(out, idx.bytes()...)

		err := idx.forEach(func(b byte) error {
			f := n.forks[b]
			fb, err := f.bytes(int(n.forkMetadataSegmentSize))
			if err != nil {
				return fmt.Errorf("%w on byte '%x'", err, []byte{b})
			}
			out = append(out, fb...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(n.metadata) > 0 {
		metaBytes, err := metadataSerialize(n.metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, metaBytes...)
	}

	xorInPlace(n.obfuscationKey, out, nodeV1ObfuscationKeySize)
	return out, nil
}

// UnmarshalBinary replaces n's state with the node encoded in data. It
// never touches n.forkMetadata: that field is only ever populated from the
// parent's fork record and must survive reloads.
func (n *NodeV1) UnmarshalBinary(data []byte) error {
	headerSize := nodeV1ObfuscationKeySize + versionHashSize + nodeV1FeaturesSize
	if len(data) < headerSize {
		return fmt.Errorf("%w: buffer shorter than header", ErrMalformedFormat)
	}

	n.obfuscationKey = append([]byte{}, data[0:nodeV1ObfuscationKeySize]...)

	plain := append([]byte{}, data...)
	xorInPlace(n.obfuscationKey, plain, nodeV1ObfuscationKeySize)

	versionHash := plain[nodeV1ObfuscationKeySize : nodeV1ObfuscationKeySize+versionHashSize]
	if !bytes.Equal(versionHash, version1Tag) {
		return fmt.Errorf("%w: version tag mismatch", ErrMalformedFormat)
	}

	n.setNodeFeatures(plain[headerSize-1])
	offset := headerSize

	if n.hasEntry {
		entrySize := refPlainSize
		if n.encEntry {
			entrySize = refEncryptedSize
		}
		if len(plain) < offset+entrySize {
			return fmt.Errorf("%w: entry truncated", ErrMalformedFormat)
		}
		n.entry = append([]byte{}, plain[offset:offset+entrySize]...)
		offset += entrySize
	} else {
		n.entry = nil
	}

	n.forks = make(map[byte]*forkV1)
	if n.isEdge {
		if len(plain) < offset+32 {
			return fmt.Errorf("%w: index bitmap truncated", ErrMalformedFormat)
		}
		idx := &indexBytes{}
		idx.fromBytes(plain[offset:])
		offset += 32

		err := idx.forEach(func(b byte) error {
			f := &forkV1{}
			consumed, err := f.fromBytes(plain[offset:], int(n.forkMetadataSegmentSize))
			if err != nil {
				return fmt.Errorf("%w on byte '%x'", err, []byte{b})
			}
			n.forks[b] = f
			offset += consumed
			return nil
		})
		if err != nil {
			return err
		}
	}

	if offset < len(plain) {
		meta, err := metadataDeserialize(plain[offset:])
		if err != nil {
			return err
		}
		n.metadata = meta
	} else {
		n.metadata = nil
	}

	return nil
}
