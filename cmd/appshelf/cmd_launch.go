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
	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/i18n"
)

type cmdLaunch struct {
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortLaunchHelp = i18n.G("Launch an installed app")
var longLaunchHelp = i18n.G(`
The launch command starts the installed package of the app through the
system installer, using whatever launch mechanism the installed variant
carries.
`)

func init() {
	addCommand("launch", shortLaunchHelp, longLaunchHelp, func() flags.Commander { return &cmdLaunch{} },
		nil, appArgDescs)
}

func (x *cmdLaunch) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	return Client().Launch(x.Positional.App)
}
