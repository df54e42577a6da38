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

	"golang.org/x/xerrors"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/resolve"
	"github.com/appshelf/appshelf/track"
)

// App is the resolved view of one app as reported by the daemon.
type App struct {
	Name     string         `json:"name"`
	Variants []app.Variant  `json:"variants"`
	Selected *origin.Source `json:"selected,omitempty"`
	Status   *app.Status    `json:"status,omitempty"`

	Evaluation resolve.Evaluation `json:"evaluation"`
	State      track.State        `json:"state"`
	// Change is the id of the app's unsettled change, if any.
	Change string `json:"change,omitempty"`
}

// AppOptions tweak how the daemon resolves an app view.
type AppOptions struct {
	// Preferred names the origin to prefer when nothing else decides
	// the selection.
	Preferred string
	// Origin pins the selection to the given origin.
	Origin string
}

// App returns the resolved view of the given app.
func (client *Client) App(name string, opts *AppOptions) (*App, error) {
	if opts == nil {
		opts = &AppOptions{}
	}
	query := url.Values{}
	if opts.Preferred != "" {
		query.Set("preferred", opts.Preferred)
	}
	if opts.Origin != "" {
		query.Set("origin", opts.Origin)
	}

	var view App
	if err := client.doSync("GET", "/v2/apps/"+name, query, nil, nil, &view); err != nil {
		fmt := "cannot resolve view of app %q: %w"
		return nil, xerrors.Errorf(fmt, name, err)
	}

	return &view, nil
}

// Origins returns the daemon's known sources in priority order.
func (client *Client) Origins() ([]origin.Source, error) {
	var sources []origin.Source
	if err := client.doSync("GET", "/v2/origins", nil, nil, nil, &sources); err != nil {
		fmt := "cannot obtain origins: %w"
		return nil, xerrors.Errorf(fmt, err)
	}

	return sources, nil
}
