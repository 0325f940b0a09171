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

package discovery_test

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/keystore"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/pkg/log/testlog"
	"github.com/zengwei2000/arcan/private/discovery"
)

func testKey(i byte, tag string) beacon.TaggedKey {
	var public [beacon.MemberSize]byte
	for j := range public {
		public[j] = i
	}
	return beacon.TaggedKey{Tag: tag, Public: public}
}

func loopbackConn(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return conn
}

type discovered struct {
	public [beacon.MemberSize]byte
	tag    string
	source string
}

// TestEmitterListenerEndToEnd sends a real beacon pair over loopback UDP and
// expects the advertised key to be recognized. This test sleeps through a
// full pair interval.
func TestEmitterListenerEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	k1 := testKey(1, "alpha")
	k2 := testKey(2, "beta")

	lconn := loopbackConn(t)
	port := lconn.LocalAddr().(*net.UDPAddr).AddrPort().Port()

	found := make(chan discovered, 4)
	listener := &discovery.Listener{
		Conn: lconn,
		Keys: keystore.NewStore(k1, k2),
		OnBeacon: func(public [beacon.MemberSize]byte, challenge [8]byte,
			tag, source string) bool {

			found <- discovered{public: public, tag: tag, source: source}
			return false
		},
	}

	emitter := &discovery.Emitter{
		Keys:           keystore.NewStore(k1),
		Conn:           loopbackConn(t),
		Destination:    netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), port),
		RescanInterval: time.Hour,
	}

	ctx := log.CtxWith(context.Background(), testlog.NewLogger(t))
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenerDone := make(chan error, 1)
	go func() {
		listenerDone <- listener.Run(ctx)
	}()
	emitterDone := make(chan error, 1)
	go func() {
		emitterDone <- emitter.Run(ectx)
	}()

	select {
	case d := <-found:
		assert.Equal(t, k1.Public, d.public)
		assert.Equal(t, "alpha", d.tag)
		assert.Equal(t, "127.0.0.1", d.source)
	case <-time.After(10 * time.Second):
		t.Fatal("no discovery within deadline")
	}

	// The callback requested a stop; the listener winds down on its own,
	// the emitter needs the cancellation.
	require.NoError(t, waitErr(t, listenerDone))
	cancel()
	require.NoError(t, waitErr(t, emitterDone))
}

func TestListenerControlStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	control := make(chan struct{}, 1)
	listener := &discovery.Listener{
		Conn: loopbackConn(t),
		Keys: keystore.NewStore(),
		OnBeacon: func([beacon.MemberSize]byte, [8]byte, string, string) bool {
			return true
		},
		Control:   control,
		OnControl: func() bool { return false },
	}

	ctx := log.CtxWith(context.Background(), testlog.NewLogger(t))
	done := make(chan error, 1)
	go func() {
		done <- listener.Run(ctx)
	}()

	control <- struct{}{}
	require.NoError(t, waitErr(t, done))
}

func TestListenerControlContinue(t *testing.T) {
	defer goleak.VerifyNone(t)

	control := make(chan struct{}, 2)
	var events int
	listener := &discovery.Listener{
		Conn: loopbackConn(t),
		Keys: keystore.NewStore(),
		OnBeacon: func([beacon.MemberSize]byte, [8]byte, string, string) bool {
			return true
		},
		Control: control,
		OnControl: func() bool {
			events++
			return events < 2
		},
	}

	ctx := log.CtxWith(context.Background(), testlog.NewLogger(t))
	done := make(chan error, 1)
	go func() {
		done <- listener.Run(ctx)
	}()

	control <- struct{}{}
	control <- struct{}{}
	require.NoError(t, waitErr(t, done))
	assert.Equal(t, 2, events)
}

func TestListenerRequiresCallback(t *testing.T) {
	listener := &discovery.Listener{Keys: keystore.NewStore()}
	err := listener.Run(context.Background())
	assert.Error(t, err)
}

func TestListenerContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	listener := &discovery.Listener{
		Conn: loopbackConn(t),
		Keys: keystore.NewStore(),
		OnBeacon: func([beacon.MemberSize]byte, [8]byte, string, string) bool {
			return true
		},
	}

	ctx, cancel := context.WithCancel(
		log.CtxWith(context.Background(), testlog.NewLogger(t)))
	done := make(chan error, 1)
	go func() {
		done <- listener.Run(ctx)
	}()

	cancel()
	require.NoError(t, waitErr(t, done))
}

func TestEmitterNeverSendsEmptyBeacon(t *testing.T) {
	defer goleak.VerifyNone(t)

	// An empty keystore produces no packets at all: the emitter idles in
	// rescan sleep instead of broadcasting a bare header.
	lconn := loopbackConn(t)
	port := lconn.LocalAddr().(*net.UDPAddr).AddrPort().Port()

	emitter := &discovery.Emitter{
		Keys:           keystore.NewStore(),
		Conn:           loopbackConn(t),
		Destination:    netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), port),
		RescanInterval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(
		log.CtxWith(context.Background(), testlog.NewLogger(t)))
	done := make(chan error, 1)
	go func() {
		done <- emitter.Run(ctx)
	}()

	require.NoError(t, lconn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	buf := make([]byte, beacon.MaxBytes)
	_, _, err := lconn.ReadFromUDP(buf)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	cancel()
	require.NoError(t, waitErr(t, done))
	lconn.Close()
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for loop exit")
		return nil
	}
}
