// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	"fmt"
)

// PathSeparator is the byte v0.2 treats as a path boundary when computing
// the advisory withPathSeparator flag. It plays no role in v1.0.
const PathSeparator = '/'

// NodeV02 is a trie node in the legacy v0.2 wire format.
type NodeV02 struct {
	nodeType       uint8
	refBytesSize   int
	obfuscationKey []byte
	ref            Reference // contentAddress; absence means dirty
	entry          Reference
	metadata       Metadata
	forks          map[byte]*forkV02
}

const (
	nodeTypeValue             = uint8(2)
	nodeTypeEdge              = uint8(4)
	nodeTypeWithPathSeparator = uint8(8)
	nodeTypeWithMetadata      = uint8(16)

	nodeTypeMask = uint8(255)
)

func nodeTypeIsWithMetadataType(nodeType uint8) bool {
	return nodeType&nodeTypeWithMetadata == nodeTypeWithMetadata
}

// newNodeV02 returns a freshly allocated, empty v0.2 node.
func newNodeV02() *NodeV02 {
	return &NodeV02{forks: make(map[byte]*forkV02)}
}

// NewNodeRefV02 constructs a v0.2 node that is only known by reference; its
// state is materialized lazily on first access via Load.
func NewNodeRefV02(ref Reference) *NodeV02 {
	return &NodeV02{ref: ref}
}

func (n *NodeV02) isValueType() bool {
	return n.nodeType&nodeTypeValue == nodeTypeValue
}

func (n *NodeV02) isEdgeType() bool {
	return n.nodeType&nodeTypeEdge == nodeTypeEdge
}

func (n *NodeV02) isWithPathSeparatorType() bool {
	return n.nodeType&nodeTypeWithPathSeparator == nodeTypeWithPathSeparator
}

func (n *NodeV02) isWithMetadataType() bool {
	return n.nodeType&nodeTypeWithMetadata == nodeTypeWithMetadata
}

func (n *NodeV02) makeValue()             { n.nodeType |= nodeTypeValue }
func (n *NodeV02) makeEdge()              { n.nodeType |= nodeTypeEdge }
func (n *NodeV02) makeWithPathSeparator() { n.nodeType |= nodeTypeWithPathSeparator }
func (n *NodeV02) makeWithMetadata()      { n.nodeType |= nodeTypeWithMetadata }

func (n *NodeV02) makeNotWithPathSeparator() {
	n.nodeType = (nodeTypeMask ^ nodeTypeWithPathSeparator) & n.nodeType
}

// updateIsWithPathSeparator sets the advisory path-separator flag when the
// first '/' in path comes after its first byte, and clears it otherwise
// (including when path starts with '/', whatever follows).
func (n *NodeV02) updateIsWithPathSeparator(path []byte) {
	if bytes.IndexRune(path, PathSeparator) > 0 {
		n.makeWithPathSeparator()
	} else {
		n.makeNotWithPathSeparator()
	}
}

// SetObfuscationKey installs a 32-byte XOR keystream for this node's wire
// payload. A nil or all-zero key disables obfuscation.
func (n *NodeV02) SetObfuscationKey(key []byte) {
	b := make([]byte, 32)
	copy(b, key)
	n.obfuscationKey = b
	n.makeDirty()
}

// Reference returns the content address this node was last saved under, or
// nil if the node is dirty.
func (n *NodeV02) Reference() Reference { return n.ref }

// Entry returns the value reference stored at this node's path, if any.
func (n *NodeV02) Entry() Reference { return n.entry }

// Metadata returns this node's metadata mapping, if any.
func (n *NodeV02) Metadata() Metadata { return n.metadata }

// IsEdge reports whether this node has any forks.
func (n *NodeV02) IsEdge() bool { return n.isEdgeType() }

// isDirty reports whether this node must be (re)serialized before its
// content address can be trusted.
func (n *NodeV02) isDirty() bool { return n.ref == nil }

func (n *NodeV02) makeDirty() { n.ref = nil }

// IsDirty reports whether this node must be (re)serialized before its
// content address can be trusted.
func (n *NodeV02) IsDirty() bool { return n.isDirty() }

// MakeDirty marks this node as needing re-serialization. Ancestors are not
// marked; a save that starts at a clean ancestor does not reach this node.
func (n *NodeV02) MakeDirty() { n.makeDirty() }

// Forks returns the fork prefix map keyed by first byte, in no particular
// order; callers needing deterministic order should sort the keys.
func (n *NodeV02) Forks() map[byte]*forkV02 { return n.forks }

// MarshalBinary serializes the node per the v0.2 wire layout in §4.D,
// applying XOR obfuscation to everything from byte 32 onward.
func (n *NodeV02) MarshalBinary() ([]byte, error) {
	if n.forks == nil {
		return nil, fmt.Errorf("%w: node not loaded", ErrMalformedFormat)
	}

	if n.refBytesSize == 0 {
		n.refBytesSize = refPlainSize
	}

	if len(n.obfuscationKey) == 0 {
		n.obfuscationKey = make([]byte, 32)
	}

	header := make([]byte, nodeV02ObfuscationKeySize+versionHashSize+1)
	copy(header[0:nodeV02ObfuscationKeySize], n.obfuscationKey)
	copy(header[nodeV02ObfuscationKeySize:nodeV02ObfuscationKeySize+versionHashSize], version02Tag)
	header[nodeV02ObfuscationKeySize+versionHashSize] = uint8(n.refBytesSize)

	out := append([]byte{}, header...)

	entryBytes := make([]byte, n.refBytesSize)
	copy(entryBytes, n.entry)
	out = append(out, entryBytes...)

	idx := &indexBytes{}
	for k := range n.forks {
		idx.setByte(k)
	}
	out = append(out, idx.bytes()...)

	err := idx.forEach(func(b byte) error {
		f := n.forks[b]
		fb, err := f.bytes(n.refBytesSize)
		if err != nil {
			return fmt.Errorf("%w on byte '%x'", err, []byte{b})
		}
		out = append(out, fb...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	xorInPlace(n.obfuscationKey, out, nodeV02ObfuscationKeySize)
	return out, nil
}

const nodeV02ObfuscationKeySize = 32

// UnmarshalBinary replaces n's state with the node encoded in data.
func (n *NodeV02) UnmarshalBinary(data []byte) error {
	headerSize := nodeV02ObfuscationKeySize + versionHashSize + 1
	if len(data) < headerSize {
		return fmt.Errorf("%w: buffer shorter than header", ErrMalformedFormat)
	}

	n.obfuscationKey = append([]byte{}, data[0:nodeV02ObfuscationKeySize]...)

	plain := append([]byte{}, data...)
	xorInPlace(n.obfuscationKey, plain, nodeV02ObfuscationKeySize)

	versionHash := plain[nodeV02ObfuscationKeySize : nodeV02ObfuscationKeySize+versionHashSize]
	if !bytes.Equal(versionHash, version02Tag) {
		return fmt.Errorf("%w: version tag mismatch", ErrMalformedFormat)
	}

	n.refBytesSize = int(plain[headerSize-1])

	n.entry = append([]byte{}, plain[headerSize:headerSize+n.refBytesSize]...)
	if isZeroKey(n.entry) {
		n.entry = nil
	}
	offset := headerSize + n.refBytesSize

	if len(plain) < offset+32 {
		return fmt.Errorf("%w: index bitmap truncated", ErrMalformedFormat)
	}
	idx := &indexBytes{}
	idx.fromBytes(plain[offset:])
	offset += 32

	n.forks = make(map[byte]*forkV02)
	err := idx.forEach(func(b byte) error {
		f := &forkV02{}
		consumed, err := f.fromBytes(plain[offset:], n.refBytesSize)
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

	// v0.2 does not persist the root's nodeType, so infer edge-ness from
	// the presence of forks.
	if len(n.forks) > 0 {
		n.makeEdge()
	}
	if n.entry != nil {
		n.makeValue()
	}

	return nil
}
