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

	"github.com/appshelf/appshelf/i18n"
)

type cmdOrigins struct{}

var shortOriginsHelp = i18n.G("List the configured origins")
var longOriginsHelp = i18n.G(`
The origins command lists the package sources the daemon knows about,
in the order the resolver considers them.
`)

func init() {
	addCommand("origins", shortOriginsHelp, longOriginsHelp, func() flags.Commander { return &cmdOrigins{} }, nil, nil)
}

func (x *cmdOrigins) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	sources, err := Client().Origins()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, i18n.G("ID\tKind\tLabel"))
	for _, src := range sources {
		fmt.Fprintf(w, "%s\t%s\t%s\n", src.ID, src.Kind, src.Label)
	}
	w.Flush()
	return nil
}
