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
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/curve25519"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

const (
	acceptedDir = "accepted"
	hostkeysDir = "hostkeys"
)

// LoadDirectory reads a keystore directory into a Store. The layout is one
// file per tag:
//
//	<dir>/accepted/<tag>   base64 32-byte X25519 public keys, one per line
//	<dir>/hostkeys/<tag>   base64 32-byte X25519 private key; the advertised
//	                       public key is derived from it
//
// Only the first whitespace-separated token of a line is read. Files or lines
// that do not parse are skipped with a log entry rather than failing the
// load; a missing subdirectory is not an error.
func LoadDirectory(ctx context.Context, dir string) (*Store, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, serrors.Wrap("opening keystore directory", err, "dir", dir)
	}
	store := NewStore()
	if err := loadKeyDir(ctx, store, filepath.Join(dir, acceptedDir), false); err != nil {
		return nil, err
	}
	if err := loadKeyDir(ctx, store, filepath.Join(dir, hostkeysDir), true); err != nil {
		return nil, err
	}
	return store, nil
}

func loadKeyDir(ctx context.Context, store *Store, dir string, private bool) error {
	logger := log.FromCtx(ctx)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return serrors.Wrap("reading keystore directory", err, "dir", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		tag := entry.Name()
		data, err := os.ReadFile(filepath.Join(dir, tag))
		if err != nil {
			logger.Info("Skipping unreadable keystore entry", "tag", tag, "err", err)
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			key, err := decodeKey(fields[0], private)
			if err != nil {
				logger.Info("Skipping unparsable key", "tag", tag, "err", err)
				continue
			}
			store.Add(beacon.TaggedKey{Tag: tag, Public: key})
		}
	}
	return nil
}

func decodeKey(token string, private bool) ([beacon.MemberSize]byte, error) {
	var key [beacon.MemberSize]byte
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(token)
	}
	if err != nil {
		return key, serrors.Wrap("decoding base64 key", err)
	}
	if len(raw) != beacon.MemberSize {
		return key, serrors.New("unexpected key length", "len", len(raw))
	}
	if !private {
		copy(key[:], raw)
		return key, nil
	}
	public, err := curve25519.X25519(raw, curve25519.Basepoint)
	if err != nil {
		return key, serrors.Wrap("deriving public key", err)
	}
	copy(key[:], public)
	return key, nil
}
