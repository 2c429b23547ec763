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

// Package session talks to network devices over an interactive CLI session.
package session

//go:generate mockgen -destination=mock_session.go -package=session github.com/carverauto/configguard/pkg/session Client

import "context"

// Client is a remote CLI session with one device. Connect must succeed
// before any other call; Disconnect is safe to call on a client that never
// connected.
type Client interface {
	Connect(ctx context.Context) error
	EnterPrivilegedMode(ctx context.Context) error
	Execute(ctx context.Context, command string) (string, error)
	Disconnect() error
}

// Target identifies the device and the credentials to log in with. A zero
// Port means the configured default.
type Target struct {
	Host         string
	Port         int
	Username     string
	Password     string
	EnableSecret string
}

// Factory creates an unconnected Client for a target.
type Factory func(Target) Client
