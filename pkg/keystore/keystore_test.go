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

package keystore_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/keystore"
)

func testKey(i byte, tag string) beacon.TaggedKey {
	var public [beacon.MemberSize]byte
	for j := range public {
		public[j] = i
	}
	return beacon.TaggedKey{Tag: tag, Public: public}
}

func TestStoreMatchChallenge(t *testing.T) {
	k1 := testKey(1, "alpha")
	k2 := testKey(2, "beta")
	store := keystore.NewStore(k1, k2)

	entry := beacon.Blind(7, k1.Public)

	var matched []beacon.TaggedKey
	cont := store.MatchChallenge(entry, 7, func(key beacon.TaggedKey) bool {
		matched = append(matched, key)
		return true
	})
	assert.True(t, cont)
	require.Len(t, matched, 1)
	assert.Equal(t, k1, matched[0])

	// The same entry under a different challenge matches nothing.
	matched = nil
	cont = store.MatchChallenge(entry, 8, func(key beacon.TaggedKey) bool {
		matched = append(matched, key)
		return true
	})
	assert.True(t, cont)
	assert.Empty(t, matched)
}

func TestStoreMatchChallengeStops(t *testing.T) {
	k := testKey(1, "alpha")
	store := keystore.NewStore(
		beacon.TaggedKey{Tag: "first", Public: k.Public},
		beacon.TaggedKey{Tag: "second", Public: k.Public},
	)
	entry := beacon.Blind(7, k.Public)

	var calls int
	cont := store.MatchChallenge(entry, 7, func(beacon.TaggedKey) bool {
		calls++
		return false
	})
	assert.False(t, cont)
	assert.Equal(t, 1, calls)
}

func TestMaskSnapshotStability(t *testing.T) {
	store := keystore.NewStore(testKey(1, "alpha"))
	mask := keystore.NewMask(store)

	key, ok := mask.Next()
	require.True(t, ok)
	assert.Equal(t, "alpha", key.Tag)

	// Keys added mid-cycle do not appear until the next reset.
	store.Add(testKey(2, "beta"))
	_, ok = mask.Next()
	assert.False(t, ok)

	mask.Reset()
	tags := drain(mask)
	assert.Equal(t, []string{"alpha", "beta"}, tags)
}

func TestMaskExhaustionRepeats(t *testing.T) {
	store := keystore.NewStore(testKey(1, "alpha"), testKey(2, "beta"))
	mask := keystore.NewMask(store)

	first := drain(mask)
	// Exhausted until reset.
	_, ok := mask.Next()
	assert.False(t, ok)

	mask.Reset()
	second := drain(mask)
	assert.Empty(t, cmp.Diff(first, second))
}

func drain(mask *keystore.Mask) []string {
	var tags []string
	for {
		key, ok := mask.Next()
		if !ok {
			return tags
		}
		tags = append(tags, key.Tag)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "accepted"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hostkeys"), 0o700))

	accepted := testKey(1, "alpha")
	writeFile(t, filepath.Join(dir, "accepted", "alpha"),
		base64.StdEncoding.EncodeToString(accepted.Public[:])+"\n")

	private := make([]byte, 32)
	private[0] = 9
	public, err := curve25519.X25519(private, curve25519.Basepoint)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "hostkeys", "self"),
		base64.StdEncoding.EncodeToString(private))

	// Unparsable entries are skipped, not fatal.
	writeFile(t, filepath.Join(dir, "accepted", "bogus"), "not-a-key\n")

	store, err := keystore.LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	keys := store.PublicTagset()
	byTag := map[string][beacon.MemberSize]byte{}
	for _, key := range keys {
		byTag[key.Tag] = key.Public
	}
	assert.Equal(t, accepted.Public, byTag["alpha"])
	var derived [beacon.MemberSize]byte
	copy(derived[:], public)
	assert.Equal(t, derived, byTag["self"])
}

func TestLoadDirectoryMissing(t *testing.T) {
	_, err := keystore.LoadDirectory(context.Background(), "/nonexistent/keystore")
	assert.Error(t, err)
}

func TestLoadDirectoryEmpty(t *testing.T) {
	store, err := keystore.LoadDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, store.Len())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
