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
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/appshelf/appshelf/client"
	"github.com/appshelf/appshelf/i18n"
)

type cmdDebugEvents struct {
	After   int    `long:"after"`
	Timeout string `long:"timeout"`
}

func init() {
	addDebugCommand("events",
		"Show recorded installer events",
		"The events command prints the installer events the daemon has recorded. With --timeout it waits that long for an event newer than --after before giving up.",
		func() flags.Commander { return &cmdDebugEvents{} })
}

func (x *cmdDebugEvents) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	opts := client.EventsOptions{After: x.After}
	if x.Timeout != "" {
		timeout, err := time.ParseDuration(x.Timeout)
		if err != nil {
			return fmt.Errorf(i18n.G("invalid timeout: %v"), err)
		}
		opts.Timeout = timeout
	}

	events, err := Client().Events(&opts)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(Stderr, i18n.G("no events recorded"))
		return nil
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTime\tOp\tApp\tResult\tNotes")
	for _, ev := range events {
		result := "ok"
		if !ev.Success {
			result = "fail"
		}
		notes := ev.Message
		if notes == "" {
			notes = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Time.Format(time.RFC3339), ev.Op, ev.App, result, notes)
	}
	w.Flush()
	return nil
}
