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

	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

var (
	// ErrShortPacket is returned for packets below MinBytes.
	ErrShortPacket = serrors.New("beacon packet too short")
	// ErrLongPacket is returned for packets above MaxBytes.
	ErrLongPacket = serrors.New("beacon packet too long")
	// ErrKeysetLength is returned when the entry section is not a positive
	// multiple of MemberSize.
	ErrKeysetLength = serrors.New("invalid beacon keyset length")
)

// Packet is a decoded beacon packet. Entries aliases the buffer it was parsed
// from.
type Packet struct {
	Challenge uint64
	Entries   []byte
}

// CheckLength validates that n is a plausible beacon packet length.
func CheckLength(n int) error {
	if n < MinBytes {
		return ErrShortPacket
	}
	if n > MaxBytes {
		return ErrLongPacket
	}
	return nil
}

// Parse decodes a beacon packet. It validates length bounds and entry
// alignment, but not the checksum; pair validation checks checksums once a
// pair exists.
func Parse(buf []byte) (Packet, error) {
	if err := CheckLength(len(buf)); err != nil {
		return Packet{}, err
	}
	if (len(buf)-headerBytes)%MemberSize != 0 {
		return Packet{}, ErrKeysetLength
	}
	return Packet{
		Challenge: binary.BigEndian.Uint64(buf[checksumBytes:headerBytes]),
		Entries:   buf[headerBytes:],
	}, nil
}

// ChallengeBytes returns the canonical big-endian wire encoding of a
// challenge. This is the single place that fixes the wire endianness.
func ChallengeBytes(c uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], c)
	return b
}

// rawChallenge reads the challenge field of a raw packet. The caller must
// have length-checked buf.
func rawChallenge(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf[checksumBytes:headerBytes])
}

// verifyChecksum reports whether the checksum field of a raw packet matches
// the hash of its payload.
func verifyChecksum(buf []byte) bool {
	want := checksum(buf[checksumBytes:])
	var got [checksumBytes]byte
	copy(got[:], buf[:checksumBytes])
	return got == want
}

// sealChecksum computes the checksum over buf[8:] and writes it to buf[0:8].
func sealChecksum(buf []byte) {
	sum := checksum(buf[checksumBytes:])
	copy(buf[:checksumBytes], sum[:])
}
