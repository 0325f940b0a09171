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

package beacon_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/keystore"
)

type match struct {
	public [beacon.MemberSize]byte
	tag    string
	source string
}

func collect(matches *[]match) beacon.OnBeacon {
	return func(public [beacon.MemberSize]byte, challenge [8]byte, tag, source string) bool {
		*matches = append(*matches, match{public: public, tag: tag, source: source})
		return true
	}
}

func TestRecognizeMatchesKnownKeys(t *testing.T) {
	k1 := testKey(1, "alpha")
	k2 := testKey(2, "beta")
	kx := testKey(3, "stranger")
	store := keystore.NewStore(k1, k2)

	p0, _ := pairFor(t, 7, k1, kx)
	disc := &beacon.Discovery{
		Source:    testSource,
		Challenge: 7,
		Entries:   p0[16:],
	}

	var matches []match
	cont := beacon.Recognize(disc, store, collect(&matches))
	assert.True(t, cont)
	require.Len(t, matches, 1)
	assert.Equal(t, k1.Public, matches[0].public)
	assert.Equal(t, "alpha", matches[0].tag)
	assert.Equal(t, testSource, matches[0].source)
}

func TestRecognizeUnknownEmitter(t *testing.T) {
	store := keystore.NewStore(testKey(1, "alpha"))
	p0, _ := pairFor(t, 7, testKey(9, "stranger"))
	disc := &beacon.Discovery{Source: testSource, Challenge: 7, Entries: p0[16:]}

	var matches []match
	cont := beacon.Recognize(disc, store, collect(&matches))
	assert.True(t, cont)
	assert.Empty(t, matches)
}

func TestRecognizeEmptyEntriesNullKey(t *testing.T) {
	store := keystore.NewStore(testKey(1, "alpha"))
	disc := &beacon.Discovery{Source: testSource, Challenge: 7}

	var publics [][beacon.MemberSize]byte
	var challenges [][8]byte
	var tags []string
	cont := beacon.Recognize(disc, store,
		func(public [beacon.MemberSize]byte, challenge [8]byte, tag, source string) bool {
			publics = append(publics, public)
			challenges = append(challenges, challenge)
			tags = append(tags, tag)
			return true
		})
	assert.True(t, cont)
	require.Len(t, publics, 1)
	assert.Equal(t, beacon.NullKey, publics[0])
	assert.Equal(t, beacon.ChallengeBytes(7), challenges[0])
	assert.Empty(t, tags[0])
}

func TestRecognizeCallbackStops(t *testing.T) {
	k1 := testKey(1, "alpha")
	k2 := testKey(2, "beta")
	store := keystore.NewStore(k1, k2)
	p0, _ := pairFor(t, 7, k1, k2)
	disc := &beacon.Discovery{Source: testSource, Challenge: 7, Entries: p0[16:]}

	var calls int
	cont := beacon.Recognize(disc, store,
		func([beacon.MemberSize]byte, [8]byte, string, string) bool {
			calls++
			return false
		})
	assert.False(t, cont)
	assert.Equal(t, 1, calls)
}

// TestRoundTrip drives emitter-built packets through the tracker and
// recognizer: every advertised key known to the receiver is reported exactly
// once, extras never fire.
func TestRoundTrip(t *testing.T) {
	emitted := []beacon.TaggedKey{
		testKey(1, "alpha"),
		testKey(2, "beta"),
		testKey(3, "gamma"),
	}
	receiverKeys := append([]beacon.TaggedKey{testKey(4, "extra")}, emitted...)
	store := keystore.NewStore(receiverKeys...)

	builder := &beacon.Builder{
		Keys: &sliceSource{keys: emitted},
		Rand: fixedRand(1234),
	}
	first, second, n, err := builder.Build()
	require.NoError(t, err)
	require.Equal(t, len(emitted), n)

	clock := newTestClock()
	tracker := newTracker(clock)
	_, err = tracker.Receive(testSource, first)
	require.NoError(t, err)
	clock.Advance(time.Second)
	disc, err := tracker.Receive(testSource, second)
	require.NoError(t, err)
	require.NotNil(t, disc)

	var matches []match
	cont := beacon.Recognize(disc, store, collect(&matches))
	assert.True(t, cont)
	require.Len(t, matches, len(emitted))
	for i, key := range emitted {
		assert.Equal(t, key.Public, matches[i].public)
		assert.Equal(t, key.Tag, matches[i].tag)
	}
}
