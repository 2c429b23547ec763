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
	"fmt"
)

// UnknownDomain is the domain a device reports until it has been resolved
// from live device output.
const UnknownDomain = "unknown"

// DeviceIdentity is the part of a device fixed at discovery time.
type DeviceIdentity struct {
	Hostname  string `json:"hostname" yaml:"hostname"`
	IPAddress string `json:"ip_address" yaml:"ip_address"`
}

// Device is one managed network device. Identity and credential are fixed at
// creation; the domain is assigned once, during backup.
type Device struct {
	DeviceIdentity
	Credential Credential `json:"-" yaml:"-"`

	domain         string
	domainResolved bool
}

// NewDevice creates a device with an unresolved domain.
func NewDevice(hostname, ipAddress string, credential Credential) *Device {
	return &Device{
		DeviceIdentity: DeviceIdentity{
			Hostname:  hostname,
			IPAddress: ipAddress,
		},
		Credential: credential,
	}
}

// Domain returns the resolved domain, or UnknownDomain before resolution.
func (d *Device) Domain() string {
	if !d.domainResolved {
		return UnknownDomain
	}

	return d.domain
}

// DomainResolved reports whether ResolveDomain has been called successfully.
func (d *Device) DomainResolved() bool {
	return d.domainResolved
}

// ResolveDomain records the domain reported by the device. The value is
// stored as given, including the empty string.
func (d *Device) ResolveDomain(domain string) error {
	if d.domainResolved {
		return fmt.Errorf("%w: %s already has domain %q", ErrDomainAlreadyResolved, d.Hostname, d.domain)
	}

	d.domain = domain
	d.domainResolved = true

	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Hostname, d.IPAddress)
}
