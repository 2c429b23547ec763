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

package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound indicates that the inventory file does not exist.
	ErrSourceNotFound = errors.New("inventory source not found")
	// ErrMalformedSource indicates that the inventory file cannot be interpreted.
	ErrMalformedSource = errors.New("malformed inventory source")
	// ErrSourceUnavailable indicates an I/O or query failure reading the source.
	ErrSourceUnavailable = errors.New("inventory source unavailable")
)

// MissingColumnError names a required column that a row does not supply.
type MissingColumnError struct {
	Column string
	Line   int
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("line %d: missing column %q", e.Line, e.Column)
}

func (*MissingColumnError) Is(target error) bool {
	return target == ErrMalformedSource
}
