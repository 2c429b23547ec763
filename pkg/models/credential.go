/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/logger"
)

const redacted = "[redacted]"

// Credential holds the authentication material for one device. It is either
// fully populated or not populated at all.
type Credential struct {
	Username     string
	Password     string
	EnableSecret string
}

// PopulateFromEnvironment fills the credential from the network_* variables.
// If any variable is missing the credential is left untouched and the error
// names the variable.
func (c *Credential) PopulateFromEnvironment(env *config.Environment, log logger.Logger) error {
	creds, err := env.NetworkCredentials()
	if err != nil {
		log.Error().Err(err).Msg("Failed to populate credentials from environment")

		return err
	}

	c.Username = creds.Username
	c.Password = creds.Password
	c.EnableSecret = creds.Enable

	log.Info().Str("username", c.Username).Msg("Credentials populated from environment variables")

	return nil
}

// PopulateInline assigns caller-supplied values. Empty values are rejected
// without modifying the credential.
func (c *Credential) PopulateInline(username, password, enableSecret string) error {
	if username == "" || password == "" || enableSecret == "" {
		return ErrIncompleteCredential
	}

	c.Username = username
	c.Password = password
	c.EnableSecret = enableSecret

	return nil
}

// IsPopulated reports whether all three fields are set.
func (c *Credential) IsPopulated() bool {
	return c.Username != "" && c.Password != "" && c.EnableSecret != ""
}

// String never prints the secrets.
func (c Credential) String() string {
	if c.Username == "" {
		return "<empty credential>"
	}

	return c.Username + "/" + redacted
}
