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

package keystore

import (
	"github.com/zengwei2000/arcan/pkg/beacon"
)

// Mask is a restartable cursor over the keystore, used to batch keys across
// beacon pairs. The first Next after creation or Reset snapshots the
// keystore; the snapshot's order stays stable for the rest of the cycle so
// that both packets of every pair cover the same key sequence. Reset starts a
// fresh cycle and picks up membership changes.
type Mask struct {
	keys     Lister
	snapshot []beacon.TaggedKey
	pos      int
	started  bool
}

// NewMask returns an unstarted mask over the given keystore.
func NewMask(keys Lister) *Mask {
	return &Mask{keys: keys}
}

// Next implements beacon.KeySource.
func (m *Mask) Next() (beacon.TaggedKey, bool) {
	if !m.started {
		m.snapshot = m.keys.PublicTagset()
		m.pos = 0
		m.started = true
	}
	if m.pos >= len(m.snapshot) {
		return beacon.TaggedKey{}, false
	}
	key := m.snapshot[m.pos]
	m.pos++
	return key, true
}

// Reset discards the snapshot. The next Next call takes a fresh one.
func (m *Mask) Reset() {
	m.snapshot = nil
	m.pos = 0
	m.started = false
}
