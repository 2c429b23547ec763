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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/carverauto/configguard/pkg/models"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

func inventoryCmd(d deps) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Print the devices that a backup run would visit",
		Flags: append(sourceFlags(), &cli.StringFlag{
			Name:  flagFormat,
			Usage: "output format (yaml, json)",
			Value: formatYAML,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cmd.String(flagFormat)
			if format != formatYAML && format != formatJSON {
				return fmt.Errorf("%w: %q", errUnknownFormat, format)
			}

			rt, err := d.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			devices, err := d.buildInventory(ctx, cmd, rt)
			if err != nil {
				return err
			}

			return writeInventory(d.stdout, format, devices)
		},
	}
}

func writeInventory(w io.Writer, format string, devices []*models.Device) error {
	identities := make([]models.DeviceIdentity, 0, len(devices))
	for _, d := range devices {
		identities = append(identities, d.DeviceIdentity)
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(identities)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(identities); err != nil {
			return err
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}
