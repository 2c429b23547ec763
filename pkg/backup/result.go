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

package backup

import (
	"errors"
	"time"

	"github.com/carverauto/configguard/pkg/session"
)

// FailureKind classifies why a device backup failed.
type FailureKind string

const (
	KindNone                 FailureKind = ""
	KindConnectTimeout       FailureKind = "connect_timeout"
	KindAuthenticationFailed FailureKind = "authentication_failed"
	KindSessionError         FailureKind = "session_error"
	KindPersistenceError     FailureKind = "persistence_error"
)

// Classify maps an error from a device visit to its FailureKind. Errors
// that match no known sentinel are session errors.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPersistence):
		return KindPersistenceError
	case errors.Is(err, session.ErrConnectTimeout):
		return KindConnectTimeout
	case errors.Is(err, session.ErrAuthenticationFailed):
		return KindAuthenticationFailed
	default:
		return KindSessionError
	}
}

// Result is the outcome of one device visit.
type Result struct {
	Hostname  string      `json:"hostname"`
	IPAddress string      `json:"ip_address"`
	Domain    string      `json:"domain"`
	Path      string      `json:"path,omitempty"`
	Kind      FailureKind `json:"kind,omitempty"`
	Err       error       `json:"-"`
	Started   time.Time   `json:"started"`
	Finished  time.Time   `json:"finished"`
}

// OK reports whether the backup was saved.
func (r Result) OK() bool {
	return r.Err == nil
}

// Outcome is "success" or "failure".
func (r Result) Outcome() string {
	if r.OK() {
		return "success"
	}

	return "failure"
}

func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Summary collects the results of one run in inventory order.
type Summary struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`
}

func (s *Summary) Succeeded() int {
	n := 0

	for i := range s.Results {
		if s.Results[i].OK() {
			n++
		}
	}

	return n
}

func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Failures returns the failed results in inventory order.
func (s *Summary) Failures() []Result {
	var failures []Result

	for _, r := range s.Results {
		if !r.OK() {
			failures = append(failures, r)
		}
	}

	return failures
}
