// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

// Loader defines a generic interface to retrieve nodes from a persistent
// storage, for read-only operations.
type Loader interface {
	Load([]byte) ([]byte, error)
}

// Saver defines a generic interface to persist nodes, for write operations.
type Saver interface {
	Save([]byte) ([]byte, error)
}

// LoadSaver is a composite interface of Loader and Saver. It is meant to be
// implemented as a thin wrapper around a persistent chunk store.
type LoadSaver interface {
	Loader
	Saver
}
