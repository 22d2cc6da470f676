// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"operation not permitted", unix.EPERM, true},
		{"access denied", unix.EACCES, true},
		{"wrapped in syscall error", os.NewSyscallError("socket", unix.EPERM), true},
		{"wrapped with context", fmt.Errorf("open: %w", unix.EACCES), true},
		{"protocol not supported", unix.EPROTONOSUPPORT, false},
		{"some other error", errors.New("foo"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPermissionError(tt.err), "isPermissionError(%v)", tt.err)
		})
	}
}

func TestIsTemporaryDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, true},
		{"wrapped temporary", fmt.Errorf("lookup: %w", &net.DNSError{IsTemporary: true}), true},
		{"not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"some other error", errors.New("foo"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTemporaryDNSError(tt.err), "isTemporaryDNSError(%v)", tt.err)
		})
	}
}
