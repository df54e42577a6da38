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

package release

import (
	"bufio"
	"os"
	"strings"
	"unicode"
)

// OS contains information about the system extracted from /etc/os-release.
type OS struct {
	ID        string   `json:"id"`
	IDLike    []string `json:"-"`
	VersionID string   `json:"version-id,omitempty"`
	VariantID string   `json:"variant-id,omitempty"`
}

// Family returns the distribution family this release belongs to.
// Derivative distributions name their parent in ID_LIKE, so for
// example a "manjaro" host reports the "arch" family. Distributions
// without ID_LIKE are their own family.
func (o *OS) Family() string {
	if len(o.IDLike) > 0 {
		return o.IDLike[0]
	}
	return o.ID
}

var (
	osReleasePath         = "/etc/os-release"
	fallbackOsReleasePath = "/usr/lib/os-release"
)

// readOSRelease returns the os-release information of the current system.
func readOSRelease() OS {
	osRelease := OS{
		// from os-release(5): If not set, defaults to "ID=linux".
		ID: "linux",
	}

	f, err := os.Open(osReleasePath)
	if err != nil {
		// this fallback is as per os-release(5)
		f, err = os.Open(fallbackOsReleasePath)
		if err != nil {
			return osRelease
		}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ws := strings.SplitN(scanner.Text(), "=", 2)
		if len(ws) < 2 {
			continue
		}

		k := strings.TrimSpace(ws[0])
		v := strings.TrimFunc(ws[1], func(r rune) bool { return r == '"' || r == '\'' || unicode.IsSpace(r) })

		switch k {
		case "ID":
			// ID is defined as a lower-case string with no spaces,
			// but not everybody reads the fine manual, so mangle it
			// here rather than trip over it everywhere else.
			fields := strings.Fields(strings.ToLower(v))
			if len(fields) > 0 {
				osRelease.ID = fields[0]
			}
		case "ID_LIKE":
			// a space separated list of IDs, closest first
			osRelease.IDLike = strings.Fields(strings.ToLower(v))
		case "VERSION_ID":
			osRelease.VersionID = v
		case "VARIANT_ID":
			osRelease.VariantID = strings.ToLower(v)
		}
	}

	return osRelease
}

// ReleaseInfo contains information for the current release.
var ReleaseInfo OS

func init() {
	ReleaseInfo = readOSRelease()
}

// MockReleaseInfo fakes the given information to appear in
// ReleaseInfo, as if it was read from /etc/os-release on startup.
func MockReleaseInfo(osRelease *OS) (restore func()) {
	old := ReleaseInfo
	ReleaseInfo = *osRelease
	return func() {
		ReleaseInfo = old
	}
}
