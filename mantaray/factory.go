// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

// MantarayNode is the version-agnostic surface shared by NodeV02 and
// NodeV1: the accessors whose signature does not depend on format
// version. Add/Remove/LookupNode/Save/Load remain on the concrete types
// because their parameter shapes genuinely differ between versions (v0.2
// takes a flat metadata map; v1.0 distinguishes node and fork metadata and
// needs a key generator).
type MantarayNode interface {
	Reference() Reference
	Entry() Reference
	Metadata() Metadata
	IsEdge() bool
	IsDirty() bool
	MakeDirty()
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

var (
	_ MantarayNode = (*NodeV02)(nil)
	_ MantarayNode = (*NodeV1)(nil)
)

// InitOptions configures the factory.
type InitOptions struct {
	// ObfuscationKey seeds the root's XOR keystream. A nil or all-zero key
	// (the default) disables obfuscation.
	ObfuscationKey []byte
	// Version selects the wire format. Defaults to Version1.
	Version Version
	// ForkMetadataSegmentSize sets the per-fork metadata slot width, in
	// 32-byte segments, for a fresh v1.0 root. Ignored for v0.2.
	ForkMetadataSegmentSize uint8
}

// InitManifestNode constructs a fresh root node seeded with an obfuscation
// key, defaulting to the v1.0 format.
func InitManifestNode(opts InitOptions) MantarayNode {
	switch opts.Version {
	case Version02:
		n := newNodeV02()
		if len(opts.ObfuscationKey) > 0 {
			n.SetObfuscationKey(opts.ObfuscationKey)
		}
		return n
	default:
		n := newNodeV1()
		n.forkMetadataSegmentSize = opts.ForkMetadataSegmentSize
		if len(opts.ObfuscationKey) > 0 {
			n.SetObfuscationKey(opts.ObfuscationKey)
		}
		return n
	}
}

// New returns a fresh v1.0 root with obfuscation disabled, mirroring the
// most common construction path.
func New() *NodeV1 {
	return newNodeV1()
}

// NewV02 returns a fresh v0.2 root with obfuscation disabled.
func NewV02() *NodeV02 {
	return newNodeV02()
}
