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

package httputil

import (
	"runtime"

	"github.com/appshelf/appshelf/release"
)

var userAgent = "appshelf/unknown"

// SetUserAgentFromVersion sets the user agent sent to the catalog,
// derived from the given version and the host release.
func SetUserAgentFromVersion(version string) string {
	ua := "appshelf/" + version
	if id := release.ReleaseInfo.ID; id != "" {
		if v := release.ReleaseInfo.VersionID; v != "" {
			ua += " " + id + "/" + v
		} else {
			ua += " " + id
		}
	}
	ua += " (" + runtime.GOARCH + ")"
	userAgent = ua
	return userAgent
}

// UserAgent returns the user agent to send to the catalog.
func UserAgent() string {
	return userAgent
}

// MockUserAgent sets the user agent for tests.
func MockUserAgent(agent string) (restore func()) {
	old := userAgent
	userAgent = agent
	return func() {
		userAgent = old
	}
}
