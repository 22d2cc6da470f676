// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net"
)

// DefaultListeningAddress is the address the API listens on if nothing else is configured.
const DefaultListeningAddress = ":8080"

// Config is the configuration for the api server
type Config struct {
	// ListeningAddress is the host:port the server listens on
	ListeningAddress string `yaml:"address" mapstructure:"address"`
	// Tls holds the tls configuration of the server
	Tls TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TLSConfig is the configuration for the server's tls
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
	KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
}

// Validate checks the listening address and the tls configuration
func (c *Config) Validate() error {
	var err error
	if _, _, sErr := net.SplitHostPort(c.ListeningAddress); sErr != nil {
		err = errors.Join(err, ErrInvalidAddress{Address: c.ListeningAddress, err: sErr})
	}
	if c.Tls.Enabled && (c.Tls.CertPath == "" || c.Tls.KeyPath == "") {
		err = errors.Join(err, errors.New("tls is enabled but the cert or key path is empty"))
	}
	return err
}
