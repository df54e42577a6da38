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
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/client"
	"github.com/appshelf/appshelf/i18n"
)

type mixinDescs map[string]string

func (mxd mixinDescs) also(m map[string]string) mixinDescs {
	n := make(map[string]string, len(mxd)+len(m))
	for k, v := range mxd {
		n[k] = v
	}
	for k, v := range m {
		n[k] = v
	}
	return n
}

// noWait is returned from waitMixin.wait when the user asked not to wait.
var noWait = errors.New("no wait for change")

var pollTime = 100 * time.Millisecond

type waitMixin struct {
	NoWait bool `long:"no-wait"`
}

var waitDescs = mixinDescs{
	// TRANSLATORS: This should not start with a lowercase letter.
	"no-wait": i18n.G("Do not wait for the operation to finish but just print the change id."),
}

// wait polls the change with the given id until it is ready, or prints
// the id and bails out right away under --no-wait.
func (mx waitMixin) wait(cli *client.Client, id string) (*client.Change, error) {
	if mx.NoWait {
		fmt.Fprintf(Stdout, "%s\n", id)
		return nil, noWait
	}

	for {
		chg, err := cli.Change(id)
		if err != nil {
			return nil, err
		}
		if chg.Ready {
			if chg.Err != "" {
				return chg, errors.New(chg.Err)
			}
			return chg, nil
		}
		time.Sleep(pollTime)
	}
}

var originDescs = mixinDescs{
	// TRANSLATORS: This should not start with a lowercase letter.
	"origin": i18n.G("Use this origin instead of the resolver's pick"),
}

var appArgDescs = []argDesc{{
	// TRANSLATORS: This needs to begin with < and end with >
	name: i18n.G("<app>"),
	// TRANSLATORS: This should not start with a lowercase letter.
	desc: i18n.G("App name"),
}}

type cmdInstall struct {
	waitMixin
	Origin     string `long:"origin"`
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortInstallHelp = i18n.G("Install an app")
var longInstallHelp = i18n.G(`
The install command installs the variant the resolver selects for the
app, or the variant from the given origin.
`)

func init() {
	addCommand("install", shortInstallHelp, longInstallHelp, func() flags.Commander { return &cmdInstall{} },
		waitDescs.also(originDescs), appArgDescs)
}

func (x *cmdInstall) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	cli := Client()
	var opts *client.InstallOptions
	if x.Origin != "" {
		opts = &client.InstallOptions{Origin: x.Origin}
	}
	changeID, err := cli.Install(x.Positional.App, opts)
	if err != nil {
		return err
	}

	if _, err := x.wait(cli, changeID); err != nil {
		if err == noWait {
			return nil
		}
		return err
	}
	fmt.Fprintf(Stdout, i18n.G("%s installed\n"), x.Positional.App)
	return nil
}

type cmdRemove struct {
	waitMixin
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortRemoveHelp = i18n.G("Remove an app")
var longRemoveHelp = i18n.G(`
The remove command removes the installed package of the app, whichever
origin it came from.
`)

func init() {
	addCommand("remove", shortRemoveHelp, longRemoveHelp, func() flags.Commander { return &cmdRemove{} },
		waitDescs, appArgDescs)
}

func (x *cmdRemove) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	cli := Client()
	changeID, err := cli.Remove(x.Positional.App)
	if err != nil {
		return err
	}

	if _, err := x.wait(cli, changeID); err != nil {
		if err == noWait {
			return nil
		}
		return err
	}
	fmt.Fprintf(Stdout, i18n.G("%s removed\n"), x.Positional.App)
	return nil
}

type cmdSwitch struct {
	waitMixin
	Origin     string `long:"origin" required:"yes"`
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortSwitchHelp = i18n.G("Switch an app to another origin")
var longSwitchHelp = i18n.G(`
The switch command reinstalls the app from the given origin, replacing
whatever origin it is currently installed from, and pins the selection
to it.
`)

func init() {
	addCommand("switch", shortSwitchHelp, longSwitchHelp, func() flags.Commander { return &cmdSwitch{} },
		waitDescs.also(map[string]string{
			// TRANSLATORS: This should not start with a lowercase letter.
			"origin": i18n.G("Origin to switch to"),
		}), appArgDescs)
}

func (x *cmdSwitch) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	cli := Client()
	changeID, err := cli.Switch(x.Positional.App, x.Origin)
	if err != nil {
		return err
	}

	if _, err := x.wait(cli, changeID); err != nil {
		if err == noWait {
			return nil
		}
		return err
	}
	fmt.Fprintf(Stdout, i18n.G("%s switched to %s\n"), x.Positional.App, x.Origin)
	return nil
}

type cmdUpdate struct {
	waitMixin
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortUpdateHelp = i18n.G("Update an app within its installed origin")
var longUpdateHelp = i18n.G(`
The update command reinstalls the app from the origin it is already
installed from, picking up the version that origin now offers. It never
changes the origin; use switch for that.
`)

func init() {
	addCommand("update", shortUpdateHelp, longUpdateHelp, func() flags.Commander { return &cmdUpdate{} },
		waitDescs, appArgDescs)
}

func (x *cmdUpdate) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	cli := Client()
	changeID, err := cli.Update(x.Positional.App)
	if err != nil {
		return err
	}

	if _, err := x.wait(cli, changeID); err != nil {
		if err == noWait {
			return nil
		}
		return err
	}
	fmt.Fprintf(Stdout, i18n.G("%s updated\n"), x.Positional.App)
	return nil
}
