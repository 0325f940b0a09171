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

// Recognize identifies which blinded entries of a validated discovery
// correspond to locally known keys and invokes cb once per match. A discovery
// without entries is surfaced as a single presence-only hint with NullKey.
// Returns false if cb requested a stop.
func Recognize(d *Discovery, keys Matcher, cb OnBeacon) bool {
	chg := ChallengeBytes(d.Challenge)
	if len(d.Entries) == 0 {
		return cb(NullKey, chg, "", d.Source)
	}
	for off := 0; off+MemberSize <= len(d.Entries); off += MemberSize {
		var entry [MemberSize]byte
		copy(entry[:], d.Entries[off:])
		if !keys.MatchChallenge(entry, d.Challenge, func(key TaggedKey) bool {
			return cb(key.Public, chg, key.Tag, d.Source)
		}) {
			return false
		}
	}
	return true
}
