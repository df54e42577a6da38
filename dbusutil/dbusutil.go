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

// Package dbusutil provides the shared D-Bus connection helpers.
package dbusutil

import (
	"github.com/godbus/dbus/v5"
)

var systemBus = dbus.SystemBus

// SystemBus returns a shared connection to the system bus, connecting
// to it if needed. godbus keeps the returned connection in a global,
// so callers must not close it.
func SystemBus() (*dbus.Conn, error) {
	return systemBus()
}

// MockSystemBus replaces the connection function behind SystemBus.
func MockSystemBus(system func() (*dbus.Conn, error)) (restore func()) {
	old := systemBus
	systemBus = system
	return func() {
		systemBus = old
	}
}
