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

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/client"
	"github.com/appshelf/appshelf/i18n"
	"github.com/appshelf/appshelf/version"
)

type cmdVersion struct{}

var shortVersionHelp = i18n.G("Show version details")
var longVersionHelp = i18n.G(`
The version command displays the versions of the running client and
daemon, and the host it runs on.
`)

func init() {
	addCommand("version", shortVersionHelp, longVersionHelp, func() flags.Commander { return &cmdVersion{} }, nil, nil)
}

func (cmd cmdVersion) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	return printVersions()
}

// serverSysInfo asks the daemon about itself, degrading to placeholder
// rows when it cannot be reached.
func serverSysInfo(cli *client.Client) *client.SysInfo {
	si, err := cli.SysInfo()
	if err != nil {
		si = &client.SysInfo{
			Version: i18n.G("unavailable"),
			Host: client.HostInfo{
				ID:        "-",
				VersionID: "-",
			},
		}
	}
	return si
}

func printVersions() error {
	si := serverSysInfo(Client())

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintf(w, "appshelf\t%s\n", version.Version)
	fmt.Fprintf(w, "appshelfd\t%s\n", si.Version)
	fmt.Fprintf(w, "%s\t%s\n", si.Host.ID, si.Host.VersionID)
	w.Flush()

	return nil
}
