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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carverauto/configguard/pkg/models"
)

// TimestampLayout formats the backup time as YY.MM.DD.HH.MM.SS.
const TimestampLayout = "06.01.02.15.04.05"

const (
	dirMode  = 0o750
	fileMode = 0o600
)

// Store writes configuration backups under <root>/<domain>/.
type Store struct {
	root  string
	clock Clock
}

// NewStore creates a store rooted at root. An empty root means the working
// directory at the time of each save.
func NewStore(root string, clock Clock) *Store {
	if clock == nil {
		clock = realClock{}
	}

	return &Store{root: root, clock: clock}
}

// Save writes config to <root>/<domain>/<hostname>_<timestamp>_backup.txt
// and returns the path. An existing file with the same name is overwritten.
// An empty domain saves directly under the root.
func (s *Store) Save(device *models.Device, config string) (string, error) {
	if err := checkPathElement(device.Hostname, false); err != nil {
		return "", fmt.Errorf("%w: hostname %q: %w", ErrPersistence, device.Hostname, err)
	}

	domain := device.Domain()
	if err := checkPathElement(domain, true); err != nil {
		return "", fmt.Errorf("%w: domain %q: %w", ErrPersistence, domain, err)
	}

	root := s.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		root = wd
	}

	dir := filepath.Join(root, domain)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	name := fmt.Sprintf("%s_%s_backup.txt", device.Hostname, s.clock.Now().Format(TimestampLayout))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(config), fileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return path, nil
}

// checkPathElement rejects names that would escape the directory they are
// joined to or that common filesystems cannot store.
func checkPathElement(name string, allowEmpty bool) error {
	if name == "" {
		if allowEmpty {
			return nil
		}

		return errEmptyName
	}

	if name == "." || name == ".." {
		return errUnsafeName
	}

	if strings.ContainsAny(name, `/\<>:"|?*`) {
		return errUnsafeName
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errUnsafeName
		}
	}

	return nil
}
