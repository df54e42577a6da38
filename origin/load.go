// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 The appshelf authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package origin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/appshelf/appshelf/osutil"
)

type tableYAML struct {
	Sources []Source   `yaml:"sources"`
	Risky   []RiskRule `yaml:"risky"`
}

// LoadTable reads a priority table from the given YAML file. The
// sources list in the file is in priority order.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read origin table: %v", err)
	}
	var content tableYAML
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("cannot parse origin table %q: %v", path, err)
	}
	return NewTable(content.Sources, content.Risky)
}

// LoadTableOrDefault loads the table at path when the file is present
// and falls back to the built-in table otherwise.
func LoadTableOrDefault(path string) (*Table, error) {
	if !osutil.FileExists(path) {
		return DefaultTable(), nil
	}
	return LoadTable(path)
}
