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
	"strings"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/client"
	"github.com/appshelf/appshelf/i18n"
)

type cmdResolve struct {
	Origin     string `long:"origin"`
	Preferred  string `long:"preferred"`
	Positional struct {
		App string `positional-arg-name:"<app>"`
	} `positional-args:"yes" required:"yes"`
}

var shortResolveHelp = i18n.G("Show the variants offered for an app")
var longResolveHelp = i18n.G(`
The resolve command lists every variant currently offered for the app
across the configured origins, marks the one the resolver selects and
the one that is installed, and reports when the two disagree or when an
update is available.
`)

func init() {
	addCommand("resolve", shortResolveHelp, longResolveHelp, func() flags.Commander { return &cmdResolve{} },
		map[string]string{
			// TRANSLATORS: This should not start with a lowercase letter.
			"origin": i18n.G("Pin the selection to this origin"),
			// TRANSLATORS: This should not start with a lowercase letter.
			"preferred": i18n.G("Prefer this origin while nothing is installed"),
		}, appArgDescs)
}

// variantNotes renders the per-variant marker column.
func variantNotes(view *client.App, v *app.Variant) string {
	var notes []string
	if view.Selected != nil && view.Selected.Equal(v.Origin) {
		notes = append(notes, "selected")
		if view.Evaluation.Risky {
			notes = append(notes, "risky")
		}
	}
	if view.Status != nil && view.Status.Installed && v.Origin.Matches(view.Status.OriginLabel) {
		notes = append(notes, "installed")
	}
	if len(notes) == 0 {
		return "-"
	}
	return strings.Join(notes, ",")
}

func (x *cmdResolve) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	var opts *client.AppOptions
	if x.Origin != "" || x.Preferred != "" {
		opts = &client.AppOptions{Origin: x.Origin, Preferred: x.Preferred}
	}
	view, err := Client().App(x.Positional.App, opts)
	if err != nil {
		return err
	}

	if len(view.Variants) == 0 {
		fmt.Fprintln(Stderr, i18n.G("no variants are currently offered"))
	} else {
		w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
		fmt.Fprintln(w, i18n.G("Origin\tVersion\tKind\tRepo\tNotes"))
		for i := range view.Variants {
			v := &view.Variants[i]
			repo := v.Repo
			if repo == "" {
				repo = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Origin.ID, v.Version, v.Origin.Kind, repo, variantNotes(view, v))
		}
		w.Flush()
	}

	if view.Evaluation.Conflict && view.Status != nil && view.Selected != nil {
		fmt.Fprintf(Stdout, i18n.G("installed from %s while %s is selected, \"appshelf switch\" reconciles\n"),
			view.Status.OriginLabel, view.Selected.ID)
	}
	if view.Evaluation.UpdateAvailable {
		fmt.Fprintf(Stdout, i18n.G("update available: %s\n"), view.Evaluation.CandidateVersion)
	}
	return nil
}
