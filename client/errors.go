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

package client

// ErrorKind distinguishes the machine-readable kinds of daemon error.
type ErrorKind string

const (
	// ErrorKindAppNotFound means no source offers the requested app.
	ErrorKindAppNotFound ErrorKind = "app-not-found"
	// ErrorKindOriginUnknown means the named origin is not in the
	// daemon's origin table.
	ErrorKindOriginUnknown ErrorKind = "origin-unknown"
	// ErrorKindOperationInFlight means another operation is still
	// running for the same app.
	ErrorKindOperationInFlight ErrorKind = "operation-in-flight"
	// ErrorKindBadRequest is the generic kind of malformed requests.
	ErrorKindBadRequest ErrorKind = "bad-request"
)

// Error is the real value of response.Result when an error occurs.
type Error struct {
	Kind    ErrorKind   `json:"kind"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`

	// StatusCode is the HTTP status code the daemon answered with.
	StatusCode int `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}
