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

package discovery

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/pkg/metrics"
	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

// Listener receives beacon packets, correlates them into pairs and reports
// recognized peers through the OnBeacon callback.
type Listener struct {
	// Addr overrides the listen address 0.0.0.0:6680.
	Addr netip.AddrPort
	// Conn optionally provides a pre-bound socket, overriding Addr. The
	// listener closes the socket when it returns.
	Conn *net.UDPConn
	// Keys matches blinded advertisements against the local keystore.
	Keys beacon.Matcher
	// OnBeacon is invoked for every recognized advertisement. Returning
	// false stops the listener.
	OnBeacon beacon.OnBeacon
	// Control is an optional host event channel multiplexed with the
	// socket.
	Control <-chan struct{}
	// OnControl is invoked for every control event. Returning false stops
	// the listener. A control event without a handler also stops it.
	OnControl func() bool
	// PendingTTL overrides the pending pair retention,
	// beacon.DefaultPendingTTL.
	PendingTTL time.Duration
	// Metrics instruments the listener if set.
	Metrics *Metrics
}

type datagram struct {
	payload []byte
	src     netip.Addr
}

// Run receives beacons until a callback requests a stop or the context is
// cancelled. Packets below the minimum beacon size are dropped silently,
// rejected pairs are logged and counted; neither ends the loop.
func (l *Listener) Run(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	if l.OnBeacon == nil {
		return serrors.New("on_beacon callback required")
	}
	conn := l.Conn
	if conn == nil {
		addr := l.Addr
		if !addr.IsValid() {
			addr = netip.AddrPortFrom(netip.IPv4Unspecified(), beacon.Port)
		}
		var err error
		conn, err = net.ListenUDP("udp4", net.UDPAddrFromAddrPort(addr))
		if err != nil {
			return serrors.Wrap("binding beacon listener", err, "addr", addr)
		}
	}
	defer conn.Close()

	tracker := beacon.NewTracker(l.PendingTTL)
	if l.Metrics != nil {
		tracker.ReceivedPackets = l.Metrics.BeaconsReceived
		tracker.RejectedPairs = l.Metrics.PairsRejected
		tracker.CompletedPairs = l.Metrics.PairsCompleted
	}

	msgs := make(chan datagram, 8)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer log.HandlePanic()
		defer close(msgs)
		buf := make([]byte, beacon.MaxBytes)
		for {
			n, src, err := conn.ReadFromUDPAddrPort(buf)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				// Interrupted or transient receive errors drop the
				// packet and keep listening.
				logger.Debug("Beacon receive error", "err", err)
				continue
			}
			payload := make([]byte, n)
			copy(payload, buf[:n])
			select {
			case msgs <- datagram{payload: payload, src: src.Addr()}:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.Control:
			if l.OnControl == nil || !l.OnControl() {
				return nil
			}
		case d, ok := <-msgs:
			if !ok {
				return serrors.New("beacon socket closed")
			}
			if len(d.payload) < beacon.MinBytes {
				continue
			}
			if !l.handle(logger, tracker, d) {
				return nil
			}
		}
	}
}

// handle feeds one datagram through the tracker and, on a completed pair, the
// recognizer. It reports whether the listener should keep running.
func (l *Listener) handle(logger log.Logger, tracker *beacon.Tracker, d datagram) bool {
	src := d.src.Unmap().String()
	disc, err := tracker.Receive(src, d.payload)
	if err != nil {
		logger.Info("beacon_fail", "source", src, "reason", err)
		return true
	}
	if disc == nil {
		return true
	}
	tracker.DeleteExpired()
	return beacon.Recognize(disc, l.Keys, l.countedCallback())
}

func (l *Listener) countedCallback() beacon.OnBeacon {
	return func(public [beacon.MemberSize]byte, challenge [8]byte, tag, source string) bool {
		if l.Metrics != nil && public != beacon.NullKey {
			metrics.CounterInc(l.Metrics.KeysRecognized)
		}
		return l.OnBeacon(public, challenge, tag, source)
	}
}
