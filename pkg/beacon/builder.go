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
	"encoding/binary"
	"math"

	"github.com/zengwei2000/arcan/pkg/scrypto"
)

// Builder constructs beacon packet pairs from a key source. Repeated Build
// calls consume the source batch by batch; an exhausted source yields an
// empty build and the caller decides when to start a new cycle.
type Builder struct {
	// Keys is the cursor the builder draws advertised keys from.
	Keys KeySource
	// Rand overrides the challenge source. Defaults to a CSPRNG.
	Rand func() (uint64, error)
}

// Build assembles the next beacon pair. The first packet carries a fresh
// random challenge c, the second c+1; both cover the same keys in the same
// order, up to KeyCap entries. n is the number of advertised keys; n == 0
// means the key source is exhausted and no packets were produced.
func (b *Builder) Build() (first, second []byte, n int, err error) {
	c, err := b.challenge()
	if err != nil {
		return nil, nil, 0, err
	}

	first = make([]byte, headerBytes, headerBytes+KeyCap*MemberSize)
	second = make([]byte, headerBytes, headerBytes+KeyCap*MemberSize)
	binary.BigEndian.PutUint64(first[checksumBytes:], c)
	binary.BigEndian.PutUint64(second[checksumBytes:], c+1)

	for n < KeyCap {
		key, ok := b.Keys.Next()
		if !ok {
			break
		}
		e1 := Blind(c, key.Public)
		e2 := Blind(c+1, key.Public)
		first = append(first, e1[:]...)
		second = append(second, e2[:]...)
		n++
	}
	if n == 0 {
		return nil, nil, 0, nil
	}

	sealChecksum(first)
	sealChecksum(second)
	return first, second, n, nil
}

// challenge draws a fresh random challenge. The all-ones value is rerolled:
// its pair partner cannot be strictly greater and receivers reject the pair.
func (b *Builder) challenge() (uint64, error) {
	random := b.Rand
	if random == nil {
		random = scrypto.RandUint64
	}
	for {
		c, err := random()
		if err != nil {
			return 0, err
		}
		if c != math.MaxUint64 {
			return c, nil
		}
	}
}
