// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/telekom/hoptrace/cmd"
	"github.com/telekom/hoptrace/pkg"
)

// version is the current version of hoptrace
// It is set at build time by using -ldflags "-X main.version=x.x.x"
var version string

func main() {
	if version != "" {
		pkg.Version = version
	}
	cmd.Execute(pkg.Version)
}
