// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EachNodeFunc is called for every node visited by EachNode, receiving the
// full path leading to it.
type EachNodeFunc func(path []byte, node *NodeV1) error

func eachNode(ctx context.Context, path []byte, l Loader, n *NodeV1, fn EachNodeFunc) error {
	if err := n.load(l); err != nil {
		return err
	}
	if err := fn(append(path[:0:0], path...), n); err != nil {
		return err
	}

	eg, ectx := errgroup.WithContext(ctx)
	for _, f := range n.forks {
		f := f
		nextPath := append(append([]byte{}, path...), f.prefix...)
		eg.Go(func() error {
			return eachNode(ectx, nextPath, l, f.node, fn)
		})
	}
	return eg.Wait()
}

// EachNode walks the subtree rooted at n, calling fn once per node
// (including n itself), descending independent subtrees concurrently.
func (n *NodeV1) EachNode(ctx context.Context, l Loader, fn EachNodeFunc) error {
	return eachNode(ctx, nil, l, n, fn)
}

// EachPathFunc is called for every concrete path (file or directory-like
// prefix) discovered while walking.
type EachPathFunc func(path []byte, isDir bool) error

func eachPath(ctx context.Context, path, prefix []byte, l Loader, n *NodeV1, fn EachPathFunc) error {
	if err := n.load(l); err != nil {
		return err
	}

	nextPath := append([]byte{}, path...)
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == PathSeparator {
			if err := fn(append(nextPath[:0:0], nextPath...), true); err != nil {
				return err
			}
		}
		nextPath = append(nextPath, prefix[i])
	}

	if n.hasEntry {
		if len(nextPath) == 0 || nextPath[len(nextPath)-1] != PathSeparator {
			if err := fn(append(nextPath[:0:0], nextPath...), false); err != nil {
				return err
			}
		}
	}

	eg, ectx := errgroup.WithContext(ctx)
	if n.isEdge {
		for _, f := range n.forks {
			f := f
			eg.Go(func() error {
				return eachPath(ectx, nextPath, f.prefix, l, f.node, fn)
			})
		}
	}
	return eg.Wait()
}

// EachPath walks the subtree rooted at n, calling fn for each file or
// directory-like prefix, using PathSeparator to recognize boundaries.
func (n *NodeV1) EachPath(ctx context.Context, l Loader, fn EachPathFunc) error {
	return eachPath(ctx, nil, nil, l, n, fn)
}
