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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/carverauto/configguard/pkg/models"
)

// CSV columns.
const (
	ColumnHostname        = "hostname"
	ColumnIPAddress       = "ipAddress"
	ColumnNetworkUsername = "network_username"
	ColumnNetworkPassword = "network_password"
	ColumnNetworkEnable   = "network_enable"
)

const utf8BOM = "\ufeff"

// PopulateFromFile appends one device per CSV data row. With
// useEnvironmentCredentials each row's credential comes from the environment;
// otherwise the row supplies the network_* columns. Rows read before a
// failing row stay in the inventory.
func (b *Builder) PopulateFromFile(path string, useEnvironmentCredentials bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Error().Str("path", path).Msg("CSV file not found")

			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}

		b.logger.Error().Err(err).Str("path", path).Msg("Error opening CSV file")

		return 0, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}
	defer f.Close()

	added, err := b.readCSV(f, useEnvironmentCredentials)
	if err != nil {
		b.logger.Error().Err(err).
			Str("path", path).
			Int("added", added).
			Int("total", len(b.devices)).
			Msg("Error reading CSV file, inventory partially populated")

		return added, err
	}

	b.logger.Info().
		Str("path", path).
		Int("added", added).
		Int("total", len(b.devices)).
		Msg("Devices populated from CSV")

	return added, nil
}

func (b *Builder) readCSV(r io.Reader, useEnvironmentCredentials bool) (int, error) {
	reader := csv.NewReader(r)
	// short rows are reported per column instead of as a field count error
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: missing header row", ErrMalformedSource)
	}

	if err != nil {
		return 0, classifyReadError(err)
	}

	columns := indexColumns(header)
	added := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return added, nil
		}

		if err != nil {
			return added, classifyReadError(err)
		}

		line, _ := reader.FieldPos(0)

		device, err := b.deviceFromRecord(columns, record, line, useEnvironmentCredentials)
		if err != nil {
			return added, err
		}

		b.devices = append(b.devices, device)
		added++
	}
}

func (b *Builder) deviceFromRecord(columns map[string]int, record []string, line int, useEnvironmentCredentials bool) (*models.Device, error) {
	value := func(column string) (string, error) {
		idx, ok := columns[column]
		if !ok || idx >= len(record) || record[idx] == "" {
			return "", &MissingColumnError{Column: column, Line: line}
		}

		return record[idx], nil
	}

	hostname, err := value(ColumnHostname)
	if err != nil {
		return nil, err
	}

	ip, err := value(ColumnIPAddress)
	if err != nil {
		return nil, err
	}

	var credential models.Credential

	if useEnvironmentCredentials {
		if err := credential.PopulateFromEnvironment(b.env, b.logger); err != nil {
			return nil, err
		}
	} else {
		fields := make([]string, 0, 3)

		for _, column := range []string{ColumnNetworkUsername, ColumnNetworkPassword, ColumnNetworkEnable} {
			v, err := value(column)
			if err != nil {
				return nil, err
			}

			fields = append(fields, v)
		}

		if err := credential.PopulateInline(fields[0], fields[1], fields[2]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedSource, line, err)
		}
	}

	return models.NewDevice(strings.TrimSpace(hostname), strings.TrimSpace(ip), credential), nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	return columns
}

func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}

	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
