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

// Package keystore holds the set of trusted public keys the discovery beacons
// advertise and are matched against.
package keystore

import (
	"sync"

	"github.com/zengwei2000/arcan/pkg/beacon"
)

// Lister enumerates the tagged public keys of a keystore.
type Lister interface {
	// PublicTagset returns a snapshot of the known keys. The returned slice
	// is owned by the caller.
	PublicTagset() []beacon.TaggedKey
}

// Store is an in-memory keystore. It is safe for concurrent use; beacon
// cycles observe consistent snapshots via PublicTagset.
type Store struct {
	mtx  sync.RWMutex
	keys []beacon.TaggedKey
}

// NewStore returns a store holding the given keys.
func NewStore(keys ...beacon.TaggedKey) *Store {
	s := &Store{}
	s.keys = append(s.keys, keys...)
	return s
}

// Add inserts a key into the store.
func (s *Store) Add(key beacon.TaggedKey) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.keys = append(s.keys, key)
}

// Len returns the number of keys in the store.
func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.keys)
}

// PublicTagset implements Lister.
func (s *Store) PublicTagset() []beacon.TaggedKey {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	snapshot := make([]beacon.TaggedKey, len(s.keys))
	copy(snapshot, s.keys)
	return snapshot
}

// MatchChallenge implements beacon.Matcher by replaying the blinding function
// over every known key.
func (s *Store) MatchChallenge(
	entry [beacon.MemberSize]byte,
	challenge uint64,
	fn func(beacon.TaggedKey) bool,
) bool {

	for _, key := range s.PublicTagset() {
		if beacon.Blind(challenge, key.Public) != entry {
			continue
		}
		if !fn(key) {
			return false
		}
	}
	return true
}
