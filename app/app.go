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

// Package app holds the core types describing one logical application
// and its installable variants across package sources.
package app

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/appshelf/appshelf/origin"
)

// Identity names one logical application. The name is the stable key
// used to correlate variants from all sources and never changes while
// the app is being viewed or operated on.
type Identity struct {
	// Name is the logical application name.
	Name string `json:"name"`
	// DefaultOrigin is the source id the app itself declares as its
	// preferred home, if any.
	DefaultOrigin string `json:"default-origin,omitempty"`
	// DisplayVersion is the last version shown for the app, for
	// example the one carried by the search result the user came
	// from. It serves as a fallback when no variant matches.
	DisplayVersion string `json:"display-version,omitempty"`
}

// Validate checks that the identity is usable.
func (id *Identity) Validate() error {
	return ValidateName(id.Name)
}

// Variant is one installable form of an app from a specific source.
// Variants are produced fresh on every resolution and never persisted.
type Variant struct {
	Origin origin.Source `json:"origin"`
	// Version is the version offered by this source. A variant
	// without a version is not installable and is filtered out
	// during aggregation.
	Version string `json:"version"`
	// Repo optionally qualifies the repository within the origin,
	// for example the spin repository actually carrying the package.
	Repo string `json:"repo,omitempty"`
	// DiskName is the on-disk package name used by this source when
	// it differs from the app name, for example a -git suffix used
	// by source builds.
	DiskName string `json:"disk-name,omitempty"`
}

// Status is a point-in-time installation fact for one app, produced
// by a status query and superseded as a whole by the next accepted
// query. It is never mutated in place.
type Status struct {
	Installed bool `json:"installed"`
	// Version is the installed version, when installed.
	Version string `json:"version,omitempty"`
	// OriginLabel names the source the installed package came from,
	// as reported by the backend. Backends report either the source
	// id or its repository label, so consumers match it against both.
	OriginLabel string `json:"origin-label,omitempty"`
	// DiskName is the name the package is installed under.
	DiskName string `json:"disk-name,omitempty"`
}

// almostValidName covers the allowed name characters; the position
// rules for dashes and dots are checked separately.
var almostValidName = regexp.MustCompile("^[a-z0-9+._-]*[a-z][a-z0-9+._-]*$")

func isValidName(name string) bool {
	if !almostValidName.MatchString(name) {
		return false
	}
	if name[0] == '-' || name[0] == '.' {
		return false
	}
	if name[len(name)-1] == '-' || strings.Contains(name, "--") {
		return false
	}
	return true
}

// ValidateName checks if a string can be used as an app name. Names
// follow distro package naming: lower-case letters, digits and the
// characters +._- with at least one letter, no leading dash or dot,
// no trailing dash and no run of dashes.
func ValidateName(name string) error {
	if len(name) < 1 || len(name) > 128 || !isValidName(name) {
		return fmt.Errorf("invalid app name: %q", name)
	}
	return nil
}
