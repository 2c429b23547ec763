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

package session

import "errors"

var (
	// ErrConnectTimeout reports a dial, handshake or read that did not
	// complete in time.
	ErrConnectTimeout = errors.New("session timed out")
	// ErrAuthenticationFailed reports rejected login or enable credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrSession covers every other session failure.
	ErrSession = errors.New("session error")
	errNotConnected = errors.New("not connected")
)
