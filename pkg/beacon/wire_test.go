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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zengwei2000/arcan/pkg/beacon"
)

// packet builds a raw beacon packet with a valid checksum.
func packet(t *testing.T, challenge uint64, entries []byte) []byte {
	t.Helper()
	buf := make([]byte, 16+len(entries))
	binary.BigEndian.PutUint64(buf[8:16], challenge)
	copy(buf[16:], entries)
	beacon.SealChecksum(buf)
	return buf
}

func TestCheckLength(t *testing.T) {
	testCases := map[string]struct {
		Length    int
		Assertion assert.ErrorAssertionFunc
	}{
		"empty":              {0, assert.Error},
		"header only":        {16, assert.Error},
		"one short of min":   {beacon.MinBytes - 1, assert.Error},
		"minimum":            {beacon.MinBytes, assert.NoError},
		"maximum":            {beacon.MaxBytes, assert.NoError},
		"one past max":       {beacon.MaxBytes + 1, assert.Error},
		"misaligned allowed": {49, assert.NoError},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Assertion(t, beacon.CheckLength(tc.Length))
		})
	}
}

func TestParse(t *testing.T) {
	entries := make([]byte, 2*beacon.MemberSize)
	for i := range entries {
		entries[i] = byte(i)
	}
	raw := packet(t, 0x0102030405060708, entries)

	pkt, err := beacon.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), pkt.Challenge)
	assert.Equal(t, entries, pkt.Entries)
}

func TestParseRejects(t *testing.T) {
	testCases := map[string]struct {
		Raw []byte
		Err error
	}{
		"truncated":  {make([]byte, 17), beacon.ErrShortPacket},
		"oversized":  {make([]byte, beacon.MaxBytes+32), beacon.ErrLongPacket},
		"misaligned": {make([]byte, 49), beacon.ErrKeysetLength},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := beacon.Parse(tc.Raw)
			assert.ErrorIs(t, err, tc.Err)
		})
	}
}

func TestChallengeBytes(t *testing.T) {
	assert.Equal(t, [8]byte{0, 0, 0, 0, 0, 0, 0, 7}, beacon.ChallengeBytes(7))
	assert.Equal(t,
		[8]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		beacon.ChallengeBytes(1<<64-1),
	)
}

func TestChecksumCoversPayload(t *testing.T) {
	raw := packet(t, 7, make([]byte, beacon.MemberSize))
	assert.True(t, beacon.VerifyChecksum(raw))

	// A flipped bit anywhere past the checksum field invalidates it.
	raw[9] ^= 0x01
	assert.False(t, beacon.VerifyChecksum(raw))
}
