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

package beacon

import (
	"lukechampine.com/blake3"
)

// Blind computes the blinded wire entry for a public key under a challenge:
// the hash of the big-endian challenge followed by the key, truncated to
// MemberSize. The emitter uses it to build entries, the recognizer replays it
// over the local keystore to identify them.
func Blind(challenge uint64, public [MemberSize]byte) [MemberSize]byte {
	h := blake3.New(MemberSize, nil)
	chg := ChallengeBytes(challenge)
	h.Write(chg[:])
	h.Write(public[:])
	var entry [MemberSize]byte
	h.Sum(entry[:0])
	return entry
}

// checksum is the 8-byte truncated hash of a packet payload (challenge and
// entries).
func checksum(payload []byte) [checksumBytes]byte {
	h := blake3.New(checksumBytes, nil)
	h.Write(payload)
	var sum [checksumBytes]byte
	h.Sum(sum[:0])
	return sum
}
