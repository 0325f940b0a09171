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

// Package discovery runs the local discovery beacon emitter and listener
// loops on top of the beacon protocol package.
package discovery

import (
	"context"
	"net"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/keystore"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/pkg/metrics"
	"github.com/zengwei2000/arcan/pkg/private/serrors"
	"github.com/zengwei2000/arcan/private/underlay/sockctrl"
)

// DefaultRescanInterval is the pause between full emission cycles once the
// keystore has been exhausted. A new cycle re-snapshots the keystore, so this
// is also how quickly membership changes reach the network.
const DefaultRescanInterval = 10 * time.Second

// Emitter periodically broadcasts beacon pairs advertising the keystore.
type Emitter struct {
	// Keys is the keystore to advertise.
	Keys keystore.Lister
	// RescanInterval overrides DefaultRescanInterval.
	RescanInterval time.Duration
	// PairInterval overrides the spacing between the packets of a pair.
	// Defaults to beacon.PairInterval; receivers reject pairs spaced below
	// beacon.MinPairDelta, so overriding is only useful in tests.
	PairInterval time.Duration
	// Destination overrides the broadcast destination
	// 255.255.255.255:6680.
	Destination netip.AddrPort
	// Conn optionally provides a pre-opened socket. If nil, the emitter
	// opens one with SO_BROADCAST and IP_MULTICAST_LOOP set. The emitter
	// closes the socket when it returns.
	Conn *net.UDPConn
	// SentBeacons counts broadcast packets.
	SentBeacons metrics.Counter
}

// Run broadcasts beacon pairs until the context is cancelled or a send
// fails. Each iteration sends the pair's first packet, sleeps for the pair
// interval and sends the second; when the keystore is exhausted the mask is
// reset and the emitter sleeps for the rescan interval before starting a new
// cycle.
func (e *Emitter) Run(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	conn, err := e.connection()
	if err != nil {
		return err
	}
	defer conn.Close()

	dst := e.Destination
	if !dst.IsValid() {
		dst = netip.AddrPortFrom(netip.AddrFrom4([4]byte{255, 255, 255, 255}), beacon.Port)
	}
	pairInterval := e.PairInterval
	if pairInterval <= 0 {
		pairInterval = beacon.PairInterval
	}
	rescan := e.RescanInterval
	if rescan <= 0 {
		rescan = DefaultRescanInterval
	}

	mask := keystore.NewMask(e.Keys)
	builder := &beacon.Builder{Keys: mask}
	for {
		if ctx.Err() != nil {
			return nil
		}
		first, second, n, err := builder.Build()
		if err != nil {
			return err
		}
		if n == 0 {
			mask.Reset()
			if !sleep(ctx, rescan) {
				return nil
			}
			continue
		}
		if _, err := conn.WriteToUDPAddrPort(first, dst); err != nil {
			return serrors.Wrap("sending first beacon", err, "dst", dst)
		}
		metrics.CounterInc(e.SentBeacons)
		if !sleep(ctx, pairInterval) {
			return nil
		}
		if _, err := conn.WriteToUDPAddrPort(second, dst); err != nil {
			return serrors.Wrap("sending second beacon", err, "dst", dst)
		}
		metrics.CounterInc(e.SentBeacons)
		logger.Debug("Beacon pair sent", "keys", n, "dst", dst)
	}
}

func (e *Emitter) connection() (*net.UDPConn, error) {
	if e.Conn != nil {
		return e.Conn, nil
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, serrors.Wrap("opening beacon socket", err)
	}
	if err := sockctrl.SetsockoptInt(conn, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
		conn.Close()
		return nil, serrors.Wrap("enabling broadcast", err)
	}
	if err := sockctrl.SetsockoptInt(conn, unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, 1); err != nil {
		conn.Close()
		return nil, serrors.Wrap("enabling multicast loop", err)
	}
	return conn, nil
}

// sleep waits for d or until the context is cancelled, and reports whether
// the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
