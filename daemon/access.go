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
	"net/http"
)

var errForbidden = Forbidden("access denied")

// accessChecker checks whether a particular request is allowed.
type accessChecker interface {
	// CheckAccess checks whether access should be granted.
	CheckAccess(d *Daemon, r *http.Request, ucred *ucrednet) *apiError
}

// openAccess allows requests from any local peer of the daemon socket.
type openAccess struct{}

func (ac openAccess) CheckAccess(d *Daemon, r *http.Request, ucred *ucrednet) *apiError {
	if ucred == nil {
		return errForbidden
	}
	return nil
}

// rootAccess allows requests from the root user only.
type rootAccess struct{}

func (ac rootAccess) CheckAccess(d *Daemon, r *http.Request, ucred *ucrednet) *apiError {
	if ucred != nil && ucred.Uid == 0 {
		return nil
	}
	return errForbidden
}
