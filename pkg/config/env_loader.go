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

package config

import (
	"os"
)

// Environment variables recognized by configguard.
const (
	EnvNetworkUsername = "network_username"
	EnvNetworkPassword = "network_password"
	EnvNetworkEnable   = "network_enable"
	EnvSWISUsername    = "swis_username"
	EnvSWISPassword    = "swis_password"
	EnvSWISServer      = "swis_server"
)

//nolint:gochecknoglobals // fixed list of recognized variables
var recognizedVariables = []string{
	EnvNetworkUsername,
	EnvNetworkPassword,
	EnvNetworkEnable,
	EnvSWISUsername,
	EnvSWISPassword,
	EnvSWISServer,
}

// Environment is a snapshot of the recognized environment variables, taken
// once at process start and passed to whatever needs credentials.
type Environment struct {
	values map[string]string
}

// NetworkCredentials are the device login, password and enable secret.
type NetworkCredentials struct {
	Username string
	Password string
	Enable   string
}

// SWISCredentials identify the SolarWinds Information Service endpoint and its login.
type SWISCredentials struct {
	Server   string
	Username string
	Password string
}

// LoadEnvironment snapshots the recognized variables from the process environment.
func LoadEnvironment() *Environment {
	values := make(map[string]string, len(recognizedVariables))

	for _, name := range recognizedVariables {
		if value, ok := os.LookupEnv(name); ok {
			values[name] = value
		}
	}

	return NewEnvironment(values)
}

// NewEnvironment builds an Environment from explicit values.
func NewEnvironment(values map[string]string) *Environment {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}

	return &Environment{values: copied}
}

// Lookup returns the value of name. Empty values count as unset.
func (e *Environment) Lookup(name string) (string, bool) {
	if e == nil {
		return "", false
	}

	value, ok := e.values[name]
	if !ok || value == "" {
		return "", false
	}

	return value, true
}

// NetworkCredentials returns the device credentials, or a *MissingVariableError
// naming the first absent variable.
func (e *Environment) NetworkCredentials() (NetworkCredentials, error) {
	values, err := e.require(EnvNetworkUsername, EnvNetworkPassword, EnvNetworkEnable)
	if err != nil {
		return NetworkCredentials{}, err
	}

	return NetworkCredentials{
		Username: values[0],
		Password: values[1],
		Enable:   values[2],
	}, nil
}

// SWISCredentials returns the monitoring-platform endpoint and login, or a
// *MissingVariableError naming the first absent variable.
func (e *Environment) SWISCredentials() (SWISCredentials, error) {
	values, err := e.require(EnvSWISUsername, EnvSWISPassword, EnvSWISServer)
	if err != nil {
		return SWISCredentials{}, err
	}

	return SWISCredentials{
		Username: values[0],
		Password: values[1],
		Server:   values[2],
	}, nil
}

func (e *Environment) require(names ...string) ([]string, error) {
	values := make([]string, 0, len(names))

	for _, name := range names {
		value, ok := e.Lookup(name)
		if !ok {
			return nil, &MissingVariableError{Variable: name}
		}

		values = append(values, value)
	}

	return values, nil
}
