// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"errors"
	"fmt"
)

// ErrFinalShutdown is returned by [Daemon.Run] once all components are stopped
var ErrFinalShutdown = errors.New("hoptrace was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of the daemon
type ErrShutdown struct {
	errAPI       error
	errTelemetry error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errTelemetry != nil
}

func (e ErrShutdown) Error() string {
	return fmt.Sprintf("shutdown failed: api: %v, telemetry: %v", e.errAPI, e.errTelemetry)
}
