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
	"context"
	"strings"

	"github.com/carverauto/configguard/pkg/session"
)

// Commands sent to every device.
const (
	CommandShowRunningConfig = "show running-config"
	CommandShowIPDomain      = "show ip domain"
	CommandShowRunDomainName = "show run | i ip domain name"
)

const domainNameKeyword = "ip domain name"

// LooksLikeInvalidInput reports whether the device rejected a command. IOS
// marks the offending token with a caret.
func LooksLikeInvalidInput(text string) bool {
	return strings.Contains(text, "^")
}

// ResolveDomain asks the device for its domain name. Devices that do not
// support "show ip domain" are asked for the matching running-config line
// instead, with the keyword removed. The result is trimmed but otherwise
// returned as the device printed it.
func ResolveDomain(ctx context.Context, client session.Client) (string, error) {
	out, err := client.Execute(ctx, CommandShowIPDomain)
	if err != nil {
		return "", err
	}

	if LooksLikeInvalidInput(out) {
		out, err = client.Execute(ctx, CommandShowRunDomainName)
		if err != nil {
			return "", err
		}

		out = strings.ReplaceAll(out, domainNameKeyword, "")
	}

	return strings.TrimSpace(out), nil
}
