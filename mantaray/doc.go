// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mantaray implements a content-addressed, compressed radix trie
// used to bind byte paths to content references within a chunk-addressed
// storage system. A node is itself a storage chunk: serialized,
// optionally XOR-obfuscated, and stored under a reference computed by the
// storage layer. Two wire format variants are supported side by side:
// NodeV02, the legacy format, and NodeV1, the current format with
// explicit entry/edge flags, a continuous-node escape hatch for prefixes
// longer than 31 bytes, and separate node-level and fork-level metadata.
package mantaray
