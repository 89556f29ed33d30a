// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

import "errors"

// Errors returned by node operations. Lookup, (un)marshalling, reference
// validation and metadata handling wrap them with the path, fork byte or
// length involved; Remove, Save, Load and the obfuscation-key check return
// them with no added context.
var (
	ErrNotFound                 = errors.New("not found")
	ErrEmptyPath                = errors.New("empty path")
	ErrInvalidReference         = errors.New("invalid reference length")
	ErrInvalidMetadata          = errors.New("invalid metadata")
	ErrMetadataOverflow         = errors.New("metadata too large for slot")
	ErrMalformedFormat          = errors.New("malformed mantaray node")
	ErrMissingObfuscationKeyGen = errors.New("obfuscation key generator required")
	ErrDirtyWithoutPayload      = errors.New("dirty node has neither entry nor forks")
	ErrNoSaver                  = errors.New("node is not persisted but no saver given")
	ErrNoLoader                 = errors.New("node is a reference but no loader given")
	ErrUnsupportedVersion       = errors.New("unsupported mantaray version")
)
