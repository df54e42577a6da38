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

// Package dirs centralizes the well-known filesystem locations used by
// appshelfd and the appshelf tool. All paths are derived from a single
// root directory so tests can relocate the whole tree.
package dirs

import (
	"path/filepath"
)

var (
	// GlobalRootDir is the root directory all other paths hang off.
	GlobalRootDir string

	// DaemonSocket is the unix socket the daemon serves its API on.
	DaemonSocket string

	// ConfFile is the daemon configuration file.
	ConfFile string

	// OriginsFile lists the origin priority table and risky pairs.
	OriginsFile string

	// AlternativesFile holds administrator-declared extra variants.
	AlternativesFile string

	// CatalogAuthFile optionally holds catalog credentials.
	CatalogAuthFile string

	// MemoDB is the learned-names and display-versions cache.
	MemoDB string

	// LocaleDir is where translations live.
	LocaleDir string
)

// SetRootDir allows settings a new global root directory. This is useful
// for testing.
func SetRootDir(rootdir string) {
	if rootdir == "" {
		rootdir = "/"
	}
	GlobalRootDir = rootdir

	DaemonSocket = filepath.Join(rootdir, "/run/appshelfd.socket")
	ConfFile = filepath.Join(rootdir, "/etc/appshelf/appshelfd.conf")
	OriginsFile = filepath.Join(rootdir, "/usr/share/appshelf/origins.yaml")
	AlternativesFile = filepath.Join(rootdir, "/etc/appshelf/alternatives.yaml")
	CatalogAuthFile = filepath.Join(rootdir, "/etc/appshelf/catalog-auth.conf")
	MemoDB = filepath.Join(rootdir, "/var/cache/appshelf/memo.db")
	LocaleDir = filepath.Join(rootdir, "/usr/share/locale")
}

func init() {
	// init the global directories at startup
	SetRootDir("/")
}
