// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package beacon implements the local discovery beacon protocol: UDP
// broadcast packets that advertise, in blinded form, which public keys the
// sender is willing to be contacted as.
//
// A beacon packet has the layout
//
//	[0:8]   checksum, the 8-byte truncated hash over everything from offset 8
//	[8:16]  challenge, big-endian uint64
//	[16:]   N x 32-byte blinded key entries, N >= 1
//
// where each entry is hash(challenge || public key) truncated to 32 bytes.
// Beacons are sent in pairs: the second packet carries challenge+1 and covers
// the same ordered key set, and must arrive no earlier than MinPairDelta after
// the first. The spacing is a proof of elapsed time that makes blind replay of
// a captured single packet useless, while the per-pair random challenge hides
// the advertised keys from observers that do not already know them.
package beacon

import (
	"time"
)

const (
	// Port is the UDP port beacons are broadcast to.
	Port = 6680
	// MemberSize is the length of a public key and of a blinded key entry.
	MemberSize = 32
	// MaxBytes caps a beacon packet to a jumbo frame.
	MaxBytes = 9000
	// MinBytes is the smallest packet accepted on the wire: checksum,
	// challenge and at least one key entry.
	MinBytes = headerBytes + MemberSize
	// KeyCap is the maximum number of key entries per packet.
	KeyCap = (MaxBytes - headerBytes) / MemberSize

	// MinPairDelta is the minimum spacing between the packets of a pair.
	// Slightly below the send interval to allow for sleep(1)-like jitter on
	// the sender.
	MinPairDelta = 980 * time.Millisecond
	// PairInterval is the sender-side spacing between the two packets of a
	// pair.
	PairInterval = time.Second

	headerBytes   = 16
	checksumBytes = 8
)

// NullKey is the public key reported for beacons that reveal presence only.
var NullKey [MemberSize]byte

// TaggedKey is a public key together with its keystore display label.
type TaggedKey struct {
	Tag    string
	Public [MemberSize]byte
}

// KeySource is a cursor over the keys to advertise. Implementations must
// present a stable order for the lifetime of the cursor, as both packets of a
// pair must cover the same ordered key set.
type KeySource interface {
	// Next returns the next key, or false when the source is exhausted.
	Next() (TaggedKey, bool)
}

// Matcher checks blinded entries against a set of known public keys.
type Matcher interface {
	// MatchChallenge calls fn for every known key whose blinded form under
	// the given challenge equals entry. It returns false if fn requested a
	// stop, true once the scan completed.
	MatchChallenge(entry [MemberSize]byte, challenge uint64, fn func(TaggedKey) bool) bool
}

// OnBeacon is invoked for every recognized peer advertisement. The public key
// is NullKey for presence-only hints, and tag is then empty. The return value
// signals whether the caller should keep going.
type OnBeacon func(public [MemberSize]byte, challenge [8]byte, tag string, source string) bool
