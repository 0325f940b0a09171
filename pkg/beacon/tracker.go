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
	"errors"
	"math"
	"time"

	"zgo.at/zcache/v2"

	"github.com/zengwei2000/arcan/pkg/metrics"
	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

// Pair validation failure reasons. Challenge and timing mismatches are soft:
// the incoming packet is assumed to be the start of the next pair and shifted
// into slot 0. The rest are hard and evict the pending entry.
var (
	ErrLengthMismatch    = serrors.New("beacon length mismatch")
	ErrChallengeMismatch = serrors.New("beacon pair challenge mismatch")
	ErrPairTooClose      = serrors.New("beacon pair too close")
	ErrFirstChecksum     = serrors.New("first beacon checksum fail")
	ErrSecondChecksum    = serrors.New("second beacon checksum fail")
)

// DefaultPendingTTL bounds how long a half-received pair is retained. A source
// that never completes its pair is forgotten after this, which keeps spoofed
// slot-0 floods from growing the pending map without bound.
const DefaultPendingTTL = 10 * PairInterval

// Discovery is a validated beacon pair: the first packet's challenge and
// blinded entries, attributed to a source host.
type Discovery struct {
	// Source is the numeric host address the pair was received from.
	Source string
	// Challenge is the first packet's challenge.
	Challenge uint64
	// Entries are the first packet's blinded key entries.
	Entries []byte
}

type pendingBeacon struct {
	payload []byte
	at      time.Time
}

// Tracker correlates incoming beacon packets into pairs, keyed by source
// host. It is not safe for concurrent use; the receive loop owns it.
type Tracker struct {
	// Now is the clock used for the elapsed-time check. Defaults to
	// time.Now; tests override it.
	Now func() time.Time

	// ReceivedPackets counts structurally acceptable packets.
	ReceivedPackets metrics.Counter
	// RejectedPairs counts pair validation failures, labeled by reason.
	RejectedPairs metrics.Counter
	// CompletedPairs counts successfully validated pairs.
	CompletedPairs metrics.Counter

	pending *zcache.Cache[string, *pendingBeacon]
}

// NewTracker returns a tracker whose pending entries expire after ttl.
// A non-positive ttl selects DefaultPendingTTL.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &Tracker{
		Now:     time.Now,
		pending: zcache.New[string, *pendingBeacon](ttl, 0),
	}
}

// Receive feeds one datagram from src into the tracker. The returned
// Discovery is non-nil exactly when the packet completed a valid pair. A
// non-nil error names the reason a packet or pair was not accepted; soft
// failures have already performed the slot-shift repair when it is returned.
func (t *Tracker) Receive(src string, payload []byte) (*Discovery, error) {
	if err := CheckLength(len(payload)); err != nil {
		return nil, err
	}
	metrics.CounterInc(t.ReceivedPackets)
	now := t.Now()

	prev, ok := t.pending.Get(src)
	if !ok {
		// First packet from this source. Checksum validation is deferred
		// until a pair exists; an orphan that never pairs ages out
		// untrusted.
		t.pending.Set(src, &pendingBeacon{payload: clone(payload), at: now})
		return nil, nil
	}

	disc, err := t.validatePair(src, prev, payload, now)
	switch {
	case errors.Is(err, ErrChallengeMismatch), errors.Is(err, ErrPairTooClose):
		// Assume the stored packet was stale or spoofed and that this one
		// opens the next pair.
		t.pending.Set(src, &pendingBeacon{payload: clone(payload), at: now})
		t.reject(err)
	case err != nil:
		t.pending.Delete(src)
		t.reject(err)
	default:
		t.pending.Delete(src)
		metrics.CounterInc(t.CompletedPairs)
	}
	return disc, err
}

func (t *Tracker) validatePair(
	src string,
	prev *pendingBeacon,
	payload []byte,
	now time.Time,
) (*Discovery, error) {

	if len(payload) != len(prev.payload) {
		return nil, ErrLengthMismatch
	}

	c0 := rawChallenge(prev.payload)
	c1 := rawChallenge(payload)
	// Strict arithmetic: the successor must be numerically greater, a
	// wrapped all-ones challenge does not pair.
	if c0 == math.MaxUint64 || c1 != c0+1 {
		return nil, ErrChallengeMismatch
	}

	if now.Sub(prev.at) < MinPairDelta {
		return nil, ErrPairTooClose
	}

	if (len(prev.payload)-headerBytes)%MemberSize != 0 {
		return nil, ErrKeysetLength
	}

	if !verifyChecksum(prev.payload) {
		return nil, ErrFirstChecksum
	}
	if !verifyChecksum(payload) {
		return nil, ErrSecondChecksum
	}

	return &Discovery{
		Source:    src,
		Challenge: c0,
		Entries:   clone(prev.payload[headerBytes:]),
	}, nil
}

func (t *Tracker) reject(err error) {
	metrics.CounterInc(metrics.CounterWith(t.RejectedPairs, "reason", reasonLabel(err)))
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrChallengeMismatch):
		return "challenge_mismatch"
	case errors.Is(err, ErrPairTooClose):
		return "too_close"
	case errors.Is(err, ErrKeysetLength):
		return "keyset_length"
	case errors.Is(err, ErrFirstChecksum):
		return "first_checksum"
	case errors.Is(err, ErrSecondChecksum):
		return "second_checksum"
	default:
		return "other"
	}
}

// PendingCount returns the number of sources with a half-received pair.
func (t *Tracker) PendingCount() int {
	return len(t.pending.Items())
}

// DeleteExpired drops pending entries past their TTL. The tracker has no
// background janitor; callers invoke this opportunistically.
func (t *Tracker) DeleteExpired() {
	t.pending.DeleteExpired()
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
