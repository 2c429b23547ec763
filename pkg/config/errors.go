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
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration indicates that a required environment variable is absent.
	ErrMissingConfiguration = errors.New("missing configuration")
	errInvalidWorkers       = errors.New("workers must be greater than 0")
	errInvalidPort          = errors.New("port must be between 1 and 65535")
	errInvalidTimeout       = errors.New("timeout must be greater than 0")
)

// MissingVariableError names the environment variable that was required but not set.
type MissingVariableError struct {
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("environment variable %s is missing", e.Variable)
}

func (*MissingVariableError) Is(target error) bool {
	return target == ErrMissingConfiguration
}
