// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains metadata about hoptrace.
package pkg

// Version is the current version of hoptrace.
// It is set at build time by main from -ldflags "-X main.version=x.x.x".
var Version = "dev"
