// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"bytes"
	"fmt"

	"golang.org/x/sync/errgroup"
)

func notFoundV02(path []byte) error {
	return fmt.Errorf("entry on '%s' ('%x'): %w", path, path, ErrNotFound)
}

// load materializes n's state from l if n is currently only a reference.
func (n *NodeV02) load(l Loader) error {
	if n == nil || n.forks != nil {
		return nil
	}
	if n.ref == nil {
		n.forks = make(map[byte]*forkV02)
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
// address to reference. Children remain unmaterialized references.
func (n *NodeV02) Load(l Loader, reference Reference) error {
	n.ref = reference
	n.forks = nil
	return n.load(l)
}

// LoadAll recursively loads every descendant of n.
func (n *NodeV02) LoadAll(l Loader) error {
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
func (n *NodeV02) LookupNode(path []byte, l Loader) (*NodeV02, error) {
	if err := n.load(l); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return n, nil
	}
	f := n.forks[path[0]]
	if f == nil {
		return nil, notFoundV02(path)
	}
	c := common(f.prefix, path)
	if len(c) != len(f.prefix) {
		return nil, notFoundV02(path)
	}
	return f.node.LookupNode(path[len(c):], l)
}

// Lookup returns the entry reference stored at path.
func (n *NodeV02) Lookup(path []byte, l Loader) (Reference, error) {
	node, err := n.LookupNode(path, l)
	if err != nil {
		return nil, err
	}
	return node.entry, nil
}

// Add binds entry and metadata to path, splitting and creating forks as
// needed. Mirrors the addFork algorithm in §4.F, version 0.2 flavor:
// prefixes longer than nodeV02PrefixMax are chained through an
// intermediate node rather than rejected.
func (n *NodeV02) Add(path []byte, entry Reference, metadata Metadata, ls LoadSaver) error {
	if err := validateReference(entry); err != nil {
		return err
	}

	if n.refBytesSize == 0 {
		if len(entry) > 0 {
			n.refBytesSize = len(entry)
		}
	} else if len(entry) > 0 && n.refBytesSize != len(entry) {
		return fmt.Errorf("%w: entry size %d, expected %d", ErrInvalidReference, len(entry), n.refBytesSize)
	}

	if len(path) == 0 {
		n.entry = entry
		if len(entry) > 0 {
			n.makeValue()
		}
		if len(metadata) > 0 {
			n.metadata = metadata
			n.makeWithMetadata()
		}
		n.makeDirty()
		return nil
	}

	if err := n.load(ls); err != nil {
		return err
	}

	f := n.forks[path[0]]
	if f == nil {
		nn := newNodeV02()
		nn.refBytesSize = n.refBytesSize
		n.propagateObfuscationKey(nn)

		if len(path) > nodeV02PrefixMax {
			prefix := path[:nodeV02PrefixMax]
			rest := path[nodeV02PrefixMax:]
			if err := nn.Add(rest, entry, metadata, ls); err != nil {
				return err
			}
			nn.updateIsWithPathSeparator(prefix)
			n.forks[path[0]] = &forkV02{prefix, nn}
			n.makeEdge()
			n.makeDirty()
			return nil
		}

		nn.entry = entry
		if len(entry) > 0 {
			nn.makeValue()
		}
		if len(metadata) > 0 {
			nn.metadata = metadata
			nn.makeWithMetadata()
		}
		nn.updateIsWithPathSeparator(path)
		n.forks[path[0]] = &forkV02{path, nn}
		n.makeEdge()
		n.makeDirty()
		return nil
	}

	c := common(f.prefix, path)
	rest := f.prefix[len(c):]
	nn := f.node
	if len(rest) > 0 {
		// split: push the existing child down under an intermediate node
		nn = newNodeV02()
		nn.refBytesSize = n.refBytesSize
		n.propagateObfuscationKey(nn)
		f.node.updateIsWithPathSeparator(rest)
		nn.forks[rest[0]] = &forkV02{rest, f.node}
		nn.makeEdge()
	}
	nn.updateIsWithPathSeparator(path)
	if err := nn.Add(path[len(c):], entry, metadata, ls); err != nil {
		return err
	}
	n.forks[path[0]] = &forkV02{c, nn}
	n.makeEdge()
	n.makeDirty()
	return nil
}

// propagateObfuscationKey inherits the parent's obfuscation key on a
// freshly allocated child, per §4.F item 5 (v0.2 has no key generator, so
// the key is simply copied down).
func (n *NodeV02) propagateObfuscationKey(child *NodeV02) {
	if len(n.obfuscationKey) > 0 && !isZeroKey(n.obfuscationKey) {
		child.SetObfuscationKey(n.obfuscationKey)
	}
}

// Remove deletes the fork ending at path. No up-merge is performed if the
// parent becomes single-child.
func (n *NodeV02) Remove(path []byte, ls LoadSaver) error {
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
			n.nodeType = (nodeTypeMask ^ nodeTypeEdge) & n.nodeType
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
// child saves in parallel and returning the root's reference. Unchanged
// subtrees are not resubmitted to storage.
func (n *NodeV02) Save(s Saver) (Reference, error) {
	if s == nil {
		return nil, ErrNoSaver
	}
	if err := n.save(s); err != nil {
		return nil, err
	}
	return n.ref, nil
}

func (n *NodeV02) save(s Saver) error {
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

	if len(n.entry) == 0 && len(n.forks) == 0 {
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
func (n *NodeV02) Equal(other *NodeV02) error {
	return equalNodesV02(n, other, nil)
}

func equalNodesV02(a, b *NodeV02, path []byte) error {
	if a.nodeType != b.nodeType {
		return fmt.Errorf("nodeType mismatch at %x: %d != %d", path, a.nodeType, b.nodeType)
	}
	if !bytes.Equal(a.entry, b.entry) {
		return fmt.Errorf("entry mismatch at %x", path)
	}
	if !metadataEqual(a.metadata, b.metadata) {
		return fmt.Errorf("metadata mismatch at %x", path)
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
		if err := equalNodesV02(fa.node, fb.node, append(append([]byte{}, path...), fa.prefix...)); err != nil {
			return err
		}
	}
	return nil
}

func metadataEqual(a, b Metadata) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
