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

// Package scrypto provides cryptographic support primitives.
package scrypto

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

// Nonce takes an input length, and returns a random nonce of the given length.
func Nonce(l int) ([]byte, error) {
	if l <= 0 {
		return nil, serrors.New("invalid nonce size", "size", l)
	}
	nonce := make([]byte, l)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// RandUint64 returns a cryptographically secure random uint64.
func RandUint64() (uint64, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return 0, serrors.Wrap("reading random bytes", err)
	}
	return binary.BigEndian.Uint64(b), nil
}
