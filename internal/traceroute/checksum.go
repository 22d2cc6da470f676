// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

// Checksum computes the Internet checksum (RFC 1071) of b.
// An odd trailing byte is summed as the high byte of a zero-padded word.
func Checksum(b []byte) uint16 {
	var sum uint64
	n := len(b) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint64(b[i])<<8 | uint64(b[i+1])
	}
	if len(b)%2 == 1 {
		sum += uint64(b[len(b)-1]) << 8
	}

	// For anything up to 64 KiB this folds exactly twice.
	for sum > 0xffff {
		sum = sum>>16 + sum&0xffff
	}
	return ^uint16(sum)
}
