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

package daemon

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/appshelf/appshelf/client"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/track"
)

// errorResult is the standard result of our JSON api when something
// goes wrong.
type errorResult struct {
	Message string `json:"message"`
	// Kind is the error kind. See client/errors.go
	Kind  client.ErrorKind `json:"kind,omitempty"`
	Value interface{}      `json:"value,omitempty"`
}

// apiError represents an error meant for returning to the client.
// It can serialize itself to our standard JSON response format.
type apiError struct {
	// Status is the error HTTP status code.
	Status  int
	Message string
	// Kind is the error kind. See client/errors.go
	Kind  client.ErrorKind
	Value interface{}
}

func (ae *apiError) Error() string {
	kindOrStatus := "api"
	if ae.Kind != "" {
		kindOrStatus = fmt.Sprintf("api: %s", ae.Kind)
	} else if ae.Status != 400 {
		kindOrStatus = fmt.Sprintf("api %d", ae.Status)
	}
	return fmt.Sprintf("%s (%s)", ae.Message, kindOrStatus)
}

func (ae *apiError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ae.JSON().ServeHTTP(w, r)
}

func (ae *apiError) JSON() *respJSON {
	return &respJSON{
		Status: ae.Status,
		Type:   ResponseTypeError,
		Result: &errorResult{
			Message: ae.Message,
			Kind:    ae.Kind,
			Value:   ae.Value,
		},
	}
}

// check it implements StructuredResponse
var _ StructuredResponse = (*apiError)(nil)

type errorResponder func(string, ...interface{}) *apiError

// makeErrorResponder builds an errorResponder from the given error status.
func makeErrorResponder(status int) errorResponder {
	return func(format string, v ...interface{}) *apiError {
		var msg string
		if len(v) == 0 {
			msg = format
		} else {
			msg = fmt.Sprintf(format, v...)
		}
		var kind client.ErrorKind
		if status == 400 {
			kind = client.ErrorKindBadRequest
		}
		return &apiError{
			Status:  status,
			Message: msg,
			Kind:    kind,
		}
	}
}

// standard error responses
var (
	BadRequest    = makeErrorResponder(400)
	Forbidden     = makeErrorResponder(403)
	NotFound      = makeErrorResponder(404)
	BadMethod     = makeErrorResponder(405)
	InternalError = makeErrorResponder(500)
)

// AppNotFound is an error responder used when no source offers an
// operation's target app.
func AppNotFound(name string) *apiError {
	return &apiError{
		Status:  404,
		Message: fmt.Sprintf("cannot find app %q", name),
		Kind:    client.ErrorKindAppNotFound,
		Value: map[string]string{
			"app-name": name,
		},
	}
}

// OriginUnknown is an error responder used when a request names an
// origin missing from the daemon's origin table.
func OriginUnknown(id string) *apiError {
	return &apiError{
		Status:  400,
		Message: fmt.Sprintf("unknown origin %q", id),
		Kind:    client.ErrorKindOriginUnknown,
		Value: map[string]string{
			"origin": id,
		},
	}
}

// errToResponse maps an engine error to an appropriate error response.
func errToResponse(err error) *apiError {
	var opErr *track.OperationInFlightError
	if errors.As(err, &opErr) {
		return &apiError{
			Status:  409,
			Message: err.Error(),
			Kind:    client.ErrorKindOperationInFlight,
			Value: map[string]string{
				"app-name": opErr.App,
				"op":       string(opErr.Op),
			},
		}
	}
	if errors.Is(err, origin.ErrUnknown) {
		return &apiError{
			Status:  400,
			Message: err.Error(),
			Kind:    client.ErrorKindOriginUnknown,
		}
	}
	return InternalError("%v", err)
}
