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
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/appshelf/appshelf/track"
)

var eventsCmd = &Command{
	Path:       "/v2/events",
	GET:        getEvents,
	ReadAccess: openAccess{},
}

// getEvents returns the journal entries after the given id, optionally
// long-polling until there is something to return.
func getEvents(c *Command, r *http.Request) Response {
	query := r.URL.Query()

	after := 0
	if s := query.Get("after"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return BadRequest(`invalid "after" event id %q`, s)
		}
		after = parsed
	}
	timeout, err := parseOptionalDuration(query.Get("timeout"))
	if err != nil {
		return BadRequest("invalid timeout: %v", err)
	}

	var events []track.Recorded
	if timeout != 0 {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		events, err = c.d.journal.WaitEvents(ctx, after)
		if errors.Is(err, context.Canceled) {
			return BadRequest("request canceled")
		}
		// whatever the journal held at the deadline is the answer,
		// even nothing
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return InternalError("cannot wait for events: %v", err)
		}
	} else {
		events = c.d.journal.Since(after)
	}

	if events == nil {
		events = []track.Recorded{} // avoid null result
	}
	return SyncResponse(events)
}
