// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// KeyFunc generates a fresh 32-byte obfuscation key for a newly allocated
// descendant node.
type KeyFunc func() ([]byte, error)

// AddOptions bundles the attributes addFork may apply: the entry
// reference, node-level metadata (serialized on the child itself), and
// fork-level metadata (serialized within the parent's edge record but
// carried on the child in memory). KeyFunc is required whenever the parent
// being mutated carries a non-zero obfuscation key, so freshly allocated
// descendants can be keyed consistently.
type AddOptions struct {
	Entry        Reference
	Metadata     Metadata
	ForkMetadata Metadata
	KeyFunc      KeyFunc
}

func notFoundV1(path []byte) error {
	return fmt.Errorf("entry on '%s' ('%x'): %w", path, path, ErrNotFound)
}

func (n *NodeV1) load(l Loader) error {
	if n == nil || n.forks != nil {
		return nil
	}
	if n.ref == nil {
		n.forks = make(map[byte]*forkV1)
		return nil
	}
	if l == nil {
		return ErrNoLoader
	}
	b, err := l.Load(n.ref)
	if err != nil {
		return err
	}
	return n.UnmarshalBinary(b)
}

// Load fetches and deserializes the node at reference, setting its content
// address to reference.
func (n *NodeV1) Load(l Loader, reference Reference) error {
	n.ref = reference
	n.forks = nil
	return n.load(l)
}

// LoadAll recursively loads every descendant of n.
func (n *NodeV1) LoadAll(l Loader) error {
	if err := n.load(l); err != nil {
		return err
	}
	for _, f := range n.forks {
		if err := f.node.LoadAll(l); err != nil {
			return err
		}
	}
	return nil
}

// LookupNode walks path fork by fork and returns the node at the end of it.
func (n *NodeV1) LookupNode(path []byte, l Loader) (*NodeV1, error) {
	if err := n.load(l); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return n, nil
	}
	f := n.forks[path[0]]
	if f == nil {
		return nil, notFoundV1(path)
	}
	c := common(f.prefix, path)
	if len(c) != len(f.prefix) {
		return nil, notFoundV1(path)
	}
	return f.node.LookupNode(path[len(c):], l)
}

// Lookup returns the entry reference stored at path.
func (n *NodeV1) Lookup(path []byte, l Loader) (Reference, error) {
	node, err := n.LookupNode(path, l)
	if err != nil {
		return nil, err
	}
	return node.entry, nil
}

// Add binds opts to path, splitting and creating forks as needed; see
// §4.F. Prefixes longer than nodeV1PrefixMax are chained through a
// continuous node that carries the overflow in its own single outgoing
// fork.
func (n *NodeV1) Add(path []byte, opts AddOptions, ls LoadSaver) error {
	if len(opts.Entry) > 0 {
		if err := validateReference(opts.Entry); err != nil {
			return err
		}
	}

	if len(path) == 0 {
		n.entry = opts.Entry
		n.hasEntry = len(opts.Entry) > 0
		n.encEntry = len(opts.Entry) == refEncryptedSize
		n.metadata = opts.Metadata
		n.forkMetadata = opts.ForkMetadata
		n.makeDirty()
		return nil
	}

	if err := n.load(ls); err != nil {
		return err
	}

	f := n.forks[path[0]]
	if f == nil {
		nn := newNodeV1()
		nn.forkMetadataSegmentSize = n.forkMetadataSegmentSize
		if err := n.propagateObfuscationKey(nn, opts.KeyFunc); err != nil {
			return err
		}

		if len(path) > nodeV1PrefixMax {
			prefix := path[:nodeV1PrefixMax]
			rest := path[nodeV1PrefixMax:]
			nn.isContinuousNode = true
			if err := nn.Add(rest, opts, ls); err != nil {
				return err
			}
			n.forks[path[0]] = &forkV1{prefix, nn}
			n.isEdge = true
			n.makeDirty()
			return nil
		}

		if err := nn.Add(nil, opts, ls); err != nil {
			return err
		}
		n.forks[path[0]] = &forkV1{append([]byte{}, path...), nn}
		n.isEdge = true
		n.makeDirty()
		return nil
	}

	c := common(f.prefix, path)
	rest := f.prefix[len(c):]
	nn := f.node
	if len(rest) > 0 {
		// split: push the existing child down under an intermediate node
		nn = newNodeV1()
		nn.forkMetadataSegmentSize = n.forkMetadataSegmentSize
		if err := n.propagateObfuscationKey(nn, opts.KeyFunc); err != nil {
			return err
		}
		// A fork's stored prefix is only "continuous" (overflow chained
		// into the child) when it sits exactly at the 31-byte ceiling.
		// rest is always shorter than that here (c took at least the
		// first byte), so the re-homed child is no longer a continuation
		// of this edge and must stop claiming to be one, or a later
		// save/load round trip would disagree with this in-memory state.
		f.node.isContinuousNode = f.node.isContinuousNode && len(rest) == nodeV1PrefixMax
		nn.forks[rest[0]] = &forkV1{rest, f.node}
		nn.isEdge = true
	}
	if err := nn.Add(path[len(c):], opts, ls); err != nil {
		return err
	}
	n.forks[path[0]] = &forkV1{c, nn}
	n.isEdge = true
	n.makeDirty()
	return nil
}

// propagateObfuscationKey inherits or freshly generates an obfuscation key
// for a newly allocated child. v1.0 requires a caller-supplied generator
// when the parent's key is non-zero.
func (n *NodeV1) propagateObfuscationKey(child *NodeV1, keyFn KeyFunc) error {
	if len(n.obfuscationKey) == 0 || isZeroKey(n.obfuscationKey) {
		return nil
	}
	if keyFn == nil {
		return ErrMissingObfuscationKeyGen
	}
	key, err := keyFn()
	if err != nil {
		return err
	}
	child.SetObfuscationKey(key)
	return nil
}

// Remove deletes the fork ending at path. No up-merge is performed if the
// parent becomes single-child.
func (n *NodeV1) Remove(path []byte, ls LoadSaver) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if err := n.load(ls); err != nil {
		return err
	}
	f := n.forks[path[0]]
	if f == nil {
		return ErrNotFound
	}
	if !bytes.HasPrefix(path, f.prefix) {
		return ErrNotFound
	}
	rest := path[len(f.prefix):]
	if len(rest) == 0 {
		delete(n.forks, path[0])
		if len(n.forks) == 0 {
			n.isEdge = false
		}
		n.makeDirty()
		return nil
	}
	if err := f.node.Remove(rest, ls); err != nil {
		return err
	}
	n.makeDirty()
	return nil
}

// Save persists the subtree rooted at n, depth-first, issuing independent
// child saves in parallel and returning the root's reference.
func (n *NodeV1) Save(s Saver) (Reference, error) {
	if s == nil {
		return nil, ErrNoSaver
	}
	if err := n.save(s); err != nil {
		return nil, err
	}
	return n.ref, nil
}

func (n *NodeV1) save(s Saver) error {
	if !n.isDirty() {
		return nil
	}
	if n.forks == nil {
		return fmt.Errorf("%w", ErrDirtyWithoutPayload)
	}

	var eg errgroup.Group
	for _, f := range n.forks {
		f := f
		eg.Go(func() error {
			return f.node.save(s)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if !n.hasEntry && len(n.forks) == 0 {
		return fmt.Errorf("%w", ErrDirtyWithoutPayload)
	}

	b, err := n.MarshalBinary()
	if err != nil {
		return err
	}
	ref, err := s.Save(b)
	if err != nil {
		return err
	}
	n.ref = ref
	return nil
}

// Equal performs a structural equality check against other, returning a
// descriptive error (including the accumulated path) on the first
// mismatch.
func (n *NodeV1) Equal(other *NodeV1) error {
	return equalNodesV1(n, other, nil)
}

func equalNodesV1(a, b *NodeV1, path []byte) error {
	if a.hasEntry != b.hasEntry || a.encEntry != b.encEntry || a.isEdge != b.isEdge {
		return fmt.Errorf("flag mismatch at %x", path)
	}
	if a.isContinuousNode != b.isContinuousNode {
		return fmt.Errorf("continuous-node mismatch at %x", path)
	}
	if a.forkMetadataSegmentSize != b.forkMetadataSegmentSize {
		return fmt.Errorf("forkMetadataSegmentSize mismatch at %x", path)
	}
	if !bytes.Equal(a.entry, b.entry) {
		return fmt.Errorf("entry mismatch at %x", path)
	}
	if !metadataEqual(a.metadata, b.metadata) {
		return fmt.Errorf("metadata mismatch at %x", path)
	}
	if !metadataEqual(a.forkMetadata, b.forkMetadata) {
		return fmt.Errorf("fork metadata mismatch at %x", path)
	}
	if len(a.forks) != len(b.forks) {
		return fmt.Errorf("fork count mismatch at %x: %d != %d", path, len(a.forks), len(b.forks))
	}
	for k, fa := range a.forks {
		fb, ok := b.forks[k]
		if !ok {
			return fmt.Errorf("missing fork '%x' at %x", k, path)
		}
		if !bytes.Equal(fa.prefix, fb.prefix) {
			return fmt.Errorf("fork prefix mismatch at %x%x", path, k)
		}
		if err := equalNodesV1(fa.node, fb.node, append(append([]byte{}, path...), fa.prefix...)); err != nil {
			return err
		}
	}
	return nil
}
