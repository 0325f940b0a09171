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

// Package sockctrl provides access to the raw socket options of UDP
// connections.
package sockctrl

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

// SockControl runs f on the raw file descriptor of c.
func SockControl(c *net.UDPConn, f func(int) error) error {
	rawConn, err := c.SyscallConn()
	if err != nil {
		return serrors.Wrap("accessing raw connection", err)
	}
	var ctrlErr error
	if err := rawConn.Control(func(fd uintptr) {
		ctrlErr = f(int(fd))
	}); err != nil {
		return serrors.Wrap("running control function", err)
	}
	return ctrlErr
}

// GetsockoptInt reads an integer socket option of c.
func GetsockoptInt(c *net.UDPConn, level, opt int) (int, error) {
	var value int
	err := SockControl(c, func(fd int) error {
		var err error
		value, err = unix.GetsockoptInt(fd, level, opt)
		return err
	})
	return value, err
}

// SetsockoptInt sets an integer socket option of c.
func SetsockoptInt(c *net.UDPConn, level, opt, value int) error {
	return SockControl(c, func(fd int) error {
		return unix.SetsockoptInt(fd, level, opt, value)
	})
}
