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

import (
	"net/url"
	"strconv"
	"time"

	"golang.org/x/xerrors"

	"github.com/appshelf/appshelf/track"
)

// EventsOptions tweak an events query.
type EventsOptions struct {
	// After filters out events with an id at or below it.
	After int
	// Timeout long-polls until an event arrives, for at most this
	// long. Zero returns immediately.
	Timeout time.Duration
}

// Events returns the completion events the daemon journaled.
func (client *Client) Events(opts *EventsOptions) ([]track.Recorded, error) {
	if opts == nil {
		opts = &EventsOptions{}
	}
	query := url.Values{}
	if opts.After > 0 {
		query.Set("after", strconv.Itoa(opts.After))
	}
	if opts.Timeout > 0 {
		query.Set("timeout", opts.Timeout.String())
	}

	var events []track.Recorded
	if err := client.doSync("GET", "/v2/events", query, nil, nil, &events); err != nil {
		fmt := "cannot obtain events: %w"
		return nil, xerrors.Errorf(fmt, err)
	}

	return events, nil
}
