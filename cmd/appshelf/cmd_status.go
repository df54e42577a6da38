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

	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/i18n"
	"github.com/appshelf/appshelf/track"
)

type cmdStatus struct {
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortStatusHelp = i18n.G("Show the installed state of an app")
var longStatusHelp = i18n.G(`
The status command prints whether the app is installed, from which
origin, and whether an operation on it is still running.
`)

func init() {
	addCommand("status", shortStatusHelp, longStatusHelp, func() flags.Commander { return &cmdStatus{} },
		nil, appArgDescs)
}

func (x *cmdStatus) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	view, err := Client().App(x.Positional.App, nil)
	if err != nil {
		return err
	}

	name := view.Name
	switch view.State {
	case track.StateInstalling:
		fmt.Fprintf(Stdout, i18n.G("%s: install in progress (change %s)\n"), name, view.Change)
	case track.StateRemoving:
		fmt.Fprintf(Stdout, i18n.G("%s: removal in progress (change %s)\n"), name, view.Change)
	case track.StateInstalled:
		fmt.Fprintf(Stdout, i18n.G("%s %s installed from %s\n"), name, view.Status.Version, view.Status.OriginLabel)
	case track.StateConflicting:
		fmt.Fprintf(Stdout, i18n.G("%s %s installed from %s, selection points at %s\n"),
			name, view.Status.Version, view.Status.OriginLabel, view.Selected.ID)
	default:
		fmt.Fprintf(Stdout, i18n.G("%s is not installed\n"), name)
	}
	if view.Evaluation.UpdateAvailable {
		fmt.Fprintf(Stdout, i18n.G("update available: %s\n"), view.Evaluation.CandidateVersion)
	}
	return nil
}
