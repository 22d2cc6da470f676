// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import "fmt"

type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for %s: %v", e.name, e.err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}

// ErrInvalidAddress is returned when the listening address is not a host:port pair
type ErrInvalidAddress struct {
	Address string
	err     error
}

func (e ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid listening address %q: %v", e.Address, e.err)
}
