// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test contains helpers shared by the tests of hoptrace.
package test

import (
	"testing"

	"golang.org/x/sys/unix"
)

// MarkAsShort marks the test as a short test.
// Short tests need neither privileges nor network access.
func MarkAsShort(t testing.TB) {
	t.Helper()
}

// MarkAsLong skips the test if the tests run in short mode.
func MarkAsLong(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping long test in short mode")
	}
}

// RequireRawSockets skips the test unless the process may open raw IPv4 sockets.
// This needs root or the NET_RAW capability.
func RequireRawSockets(t testing.TB) {
	t.Helper()
	MarkAsLong(t)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.IPPROTO_ICMP)
	if err != nil {
		t.Skipf("raw sockets not available: %v", err)
	}
	_ = unix.Close(fd)
}
