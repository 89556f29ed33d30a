// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray

// Version identifies a mantaray wire format.
type Version uint8

// Supported versions. Version02 is the legacy format; Version1 is current
// and is what the factory produces unless told otherwise. Version1 is the
// zero value, so an unset InitOptions.Version selects it.
const (
	Version1 Version = iota
	Version02
)

func (v Version) String() string {
	switch v {
	case Version02:
		return versionCode02String
	case Version1:
		return versionCode1String
	default:
		return "unknown"
	}
}

const (
	versionNamePrefix   = "mantaray:"
	versionCode02String = "0.2"
	versionCode1String  = "1.0"

	versionHashSize = 31
)

var (
	version02Tag = versionTag(versionCode02String)
	version1Tag  = versionTag(versionCode1String)
)
