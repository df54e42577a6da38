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

	"github.com/appshelf/appshelf/track"
)

func APICommands() []*Command {
	return api
}

// NewAndAddRoutes builds a daemon from the options and wires up its
// router, without touching any socket.
func NewAndAddRoutes(opts *Options) (*Daemon, error) {
	d, err := New(opts)
	if err != nil {
		return nil, err
	}
	d.addRoutes()
	return d, nil
}

func (d *Daemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.router.ServeHTTP(w, r)
}

func (d *Daemon) HandleCompletion(ev track.Event) {
	d.handleCompletion(ev)
}

type Ucrednet = ucrednet

func MockUcrednetGet(mock func(remoteAddr string) (ucred *Ucrednet, err error)) (restore func()) {
	oldUcrednetGet := ucrednetGet
	ucrednetGet = mock
	return func() {
		ucrednetGet = oldUcrednetGet
	}
}

type (
	RespJSON    = respJSON
	APIError    = apiError
	ErrorResult = errorResult
)

var (
	UcrednetGet = ucrednetGetImpl
	Logit       = logit

	MakeErrorResponder = makeErrorResponder
	ErrToResponse      = errToResponse
)
