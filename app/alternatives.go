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

package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/appshelf/appshelf/osutil"
)

// Alternative is one manually declared variant of an app, as listed
// in the administrator-maintained alternatives file. The origin is a
// source id resolved against the origin table at aggregation time.
type Alternative struct {
	Origin   string `yaml:"origin"`
	Version  string `yaml:"version"`
	Repo     string `yaml:"repo,omitempty"`
	DiskName string `yaml:"disk-name,omitempty"`
}

type alternativesYAML struct {
	Apps map[string][]Alternative `yaml:"apps"`
}

// ReadAlternatives loads the manually declared variants from the
// given YAML file. A missing file is not an error; it simply means
// nothing was declared.
func ReadAlternatives(path string) (map[string][]Alternative, error) {
	if !osutil.FileExists(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read alternatives: %v", err)
	}
	var content alternativesYAML
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("cannot parse alternatives %q: %v", path, err)
	}
	for name := range content.Apps {
		if err := ValidateName(name); err != nil {
			return nil, fmt.Errorf("cannot use alternatives %q: %v", path, err)
		}
	}
	return content.Apps, nil
}
