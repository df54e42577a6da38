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
	"errors"
	"net/http"
)

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > 10 {
		return errors.New("stopped after 10 redirects")
	}
	fixupHeadersForRedirect(req, via)

	return nil
}

// fixupHeadersForRedirect carries selected headers over to the
// redirected request. The catalog bounces variant queries to mirrors
// on other hosts, and go's client drops headers on cross-origin
// redirects.
func fixupHeadersForRedirect(req *http.Request, via []*http.Request) {
	if len(via) == 0 {
		return
	}
	first := via[0]
	for _, hdr := range []string{"Range", "User-Agent", "Accept"} {
		if req.Header.Get(hdr) == "" && first.Header.Get(hdr) != "" {
			req.Header.Set(hdr, first.Header.Get(hdr))
		}
	}
}
