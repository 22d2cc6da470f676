// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

// socket sends probes and receives ICMP packets for a single run.
//
//go:generate go tool moq -out socket_moq.go . socket
type socket interface {
	// Send writes the complete packet b, IP header included, towards dst.
	Send(b []byte, dst netip.Addr) (int, error)
	// WaitReadable blocks until a packet can be received or the timeout elapses.
	// It returns false if nothing arrived in time.
	WaitReadable(timeout time.Duration) (bool, error)
	// Recv reads one packet, IP header included, into b.
	Recv(b []byte) (int, netip.Addr, error)
	// Close releases the socket. It is safe to call more than once.
	Close() error
}

var _ socket = (*rawSocket)(nil)

// rawSocket holds the two raw sockets of a run: an IPPROTO_RAW socket
// for sending hand-built IP packets and an IPPROTO_ICMP socket that
// receives every ICMP packet delivered to the host.
// Both require NET_RAW capabilities.
type rawSocket struct {
	sendFD int
	recvFD int
}

// newRawSocket opens the send and the receive socket.
// It returns [ErrPermission] if the process is not allowed to open raw sockets.
func newRawSocket() (socket, error) {
	sendFD, err := openRaw(unix.IPPROTO_RAW)
	if err != nil {
		return nil, fmt.Errorf("failed to open send socket: %w", err)
	}

	recvFD, err := openRaw(unix.IPPROTO_ICMP)
	if err != nil {
		_ = unix.Close(sendFD)
		return nil, fmt.Errorf("failed to open receive socket: %w", err)
	}

	return &rawSocket{sendFD: sendFD, recvFD: recvFD}, nil
}

func openRaw(proto int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, proto)
	if err == nil {
		return fd, nil
	}
	if isPermissionError(err) {
		return -1, fmt.Errorf("%w: %w", ErrPermission, err)
	}
	return -1, err
}

// Send writes b to dst. The kernel completes the IP header of b
// as described for [HeaderKernel].
func (s *rawSocket) Send(b []byte, dst netip.Addr) (int, error) {
	if !dst.Is4() {
		return 0, fmt.Errorf("%w: %s", ErrNoIPv4Address, dst)
	}
	if err := unix.Sendto(s.sendFD, b, 0, &unix.SockaddrInet4{Addr: dst.As4()}); err != nil {
		return 0, fmt.Errorf("sendto failed: %w", err)
	}
	return len(b), nil
}

// WaitReadable polls the receive socket for at most timeout.
// An interrupted poll is reported as "nothing arrived" so that the caller
// re-arms the wait with its remaining budget.
func (s *rawSocket) WaitReadable(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.recvFD), Events: unix.POLLIN}} // #nosec G115 // file descriptors fit into int32
	n, err := unix.Poll(fds, pollMillis(timeout))
	switch {
	case errors.Is(err, unix.EINTR):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("poll failed: %w", err)
	case n == 0:
		return false, nil
	}

	if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("poll reported socket error, revents %#x", fds[0].Revents)
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

// Recv reads one packet. A read interrupted by a signal yields zero bytes and no error.
func (s *rawSocket) Recv(b []byte) (int, netip.Addr, error) {
	n, from, err := unix.Recvfrom(s.recvFD, b, 0)
	switch {
	case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
		return 0, netip.Addr{}, nil
	case err != nil:
		return 0, netip.Addr{}, fmt.Errorf("recvfrom failed: %w", err)
	}

	sa, ok := from.(*unix.SockaddrInet4)
	if !ok {
		return n, netip.Addr{}, nil
	}
	return n, netip.AddrFrom4(sa.Addr), nil
}

// Close closes both sockets.
func (s *rawSocket) Close() error {
	var err error
	if s.sendFD >= 0 {
		err = errors.Join(err, unix.Close(s.sendFD))
		s.sendFD = -1
	}
	if s.recvFD >= 0 {
		err = errors.Join(err, unix.Close(s.recvFD))
		s.recvFD = -1
	}
	return err
}

// pollMillis converts timeout to the poll(2) timeout in milliseconds.
// It rounds down so the wait never outlasts timeout.
func pollMillis(timeout time.Duration) int {
	if timeout < 0 {
		return 0
	}
	return int(timeout / time.Millisecond)
}
