// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidOptions is returned when the traceroute options are out of range.
	ErrInvalidOptions = errors.New("invalid traceroute options")
	// ErrNoIPv4Address is returned when the target has no IPv4 address.
	ErrNoIPv4Address = errors.New("target has no IPv4 address")
	// ErrPermission is returned when the process may not open raw sockets.
	// This typically means the process lacks the NET_RAW capability and is not running as root.
	ErrPermission = errors.New("no NET_RAW capabilities, raw ICMP sockets not available")
)

// isPermissionError checks if the error was caused by missing privileges.
func isPermissionError(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

// isTemporaryDNSError checks if a lookup error is worth retrying.
func isTemporaryDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return false
}
