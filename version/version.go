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

// Package version holds the version of the appshelf tools.
package version

// Version is the version of appshelf and appshelfd. Packaging
// overrides it at build time via -ldflags.
var Version = "0.9.1"

// MockVersion sets the version for tests.
func MockVersion(version string) (restore func()) {
	old := Version
	Version = version
	return func() {
		Version = old
	}
}
