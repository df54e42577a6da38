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
	"bytes"
	"encoding/json"
	"fmt"
)

type actionData struct {
	Action string `json:"action"`
	Origin string `json:"origin,omitempty"`
}

// InstallOptions tweak an install request.
type InstallOptions struct {
	// Origin names the source to install from instead of letting the
	// daemon's selection decide.
	Origin string
}

// Install asks the daemon to install the given app. The returned
// change id tracks the operation.
func (client *Client) Install(name string, opts *InstallOptions) (changeID string, err error) {
	var originID string
	if opts != nil {
		originID = opts.Origin
	}
	return client.doAppAction(name, &actionData{Action: "install", Origin: originID})
}

// Remove asks the daemon to remove the given app.
func (client *Client) Remove(name string) (changeID string, err error) {
	return client.doAppAction(name, &actionData{Action: "remove"})
}

// Switch asks the daemon to reinstall the given app from another
// origin.
func (client *Client) Switch(name, originID string) (changeID string, err error) {
	return client.doAppAction(name, &actionData{Action: "switch", Origin: originID})
}

// Update asks the daemon to update the given app within its installed
// origin.
func (client *Client) Update(name string) (changeID string, err error) {
	return client.doAppAction(name, &actionData{Action: "update"})
}

func (client *Client) doAppAction(name string, action *actionData) (string, error) {
	data, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("cannot marshal app action: %s", err)
	}
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	return client.doAsync("POST", "/v2/apps/"+name, nil, headers, bytes.NewBuffer(data))
}

// Launch asks the daemon to start the installed app. Launching is
// synchronous; there is no change to wait for.
func (client *Client) Launch(name string) error {
	data, err := json.Marshal(&actionData{Action: "launch"})
	if err != nil {
		return fmt.Errorf("cannot marshal app action: %s", err)
	}
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	return client.doSync("POST", "/v2/apps/"+name, nil, headers, bytes.NewBuffer(data), nil)
}
