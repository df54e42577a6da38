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
	"fmt"
	"net/http"
	"time"

	"github.com/appshelf/appshelf/release"
)

var api = []*Command{
	rootCmd,
	systemInfoCmd,
	originsCmd,
	appCmd,
	changeCmd,
	eventsCmd,
}

var (
	rootCmd = &Command{
		Path:       "/",
		GET:        getRoot,
		ReadAccess: openAccess{},
	}

	systemInfoCmd = &Command{
		Path:       "/v2/system-info",
		GET:        getSystemInfo,
		ReadAccess: openAccess{},
	}

	originsCmd = &Command{
		Path:       "/v2/origins",
		GET:        getOrigins,
		ReadAccess: openAccess{},
	}
)

func getRoot(c *Command, r *http.Request) Response {
	return SyncResponse([]string{"/v2"})
}

// hostInfo describes the host distribution as read from os-release.
type hostInfo struct {
	ID        string `json:"id"`
	VersionID string `json:"version-id,omitempty"`
	Family    string `json:"family"`
	Variant   string `json:"variant,omitempty"`
}

type systemInfoResult struct {
	Version string   `json:"version"`
	Host    hostInfo `json:"host"`
	// Origins lists the known source ids in priority order.
	Origins []string `json:"origins"`
}

func getSystemInfo(c *Command, r *http.Request) Response {
	sources := c.d.origins.Sources()
	ids := make([]string, len(sources))
	for i, src := range sources {
		ids[i] = src.ID
	}
	return SyncResponse(&systemInfoResult{
		Version: c.d.Version,
		Host: hostInfo{
			ID:        release.ReleaseInfo.ID,
			VersionID: release.ReleaseInfo.VersionID,
			Family:    release.ReleaseInfo.Family(),
			Variant:   release.ReleaseInfo.VariantID,
		},
		Origins: ids,
	})
}

func getOrigins(c *Command, r *http.Request) Response {
	return SyncResponse(c.d.origins.Sources())
}

// parseOptionalDuration returns the duration of the given string, or
// zero when the string is empty.
func parseOptionalDuration(s string) (time.Duration, error) {
	var duration time.Duration
	if s != "" {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		duration = parsed
	}
	return duration, nil
}
