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
)

type cmdHelp struct {
	Manpage    bool `long:"man" hidden:"yes"`
	Positional struct {
		Sub string `positional-arg-name:"<command>"`
	} `positional-args:"yes"`
	parser *flags.Parser
}

var shortHelpHelp = i18n.G("Show help about a command")
var longHelpHelp = i18n.G(`
The help command displays information about commands.
`)

func init() {
	addCommand("help", shortHelpHelp, longHelpHelp, func() flags.Commander { return &cmdHelp{} },
		map[string]string{
			// TRANSLATORS: This should not start with a lowercase letter.
			"man": i18n.G("Generate the manpage"),
		}, []argDesc{{
			// TRANSLATORS: This needs to begin with < and end with >
			name: i18n.G("<command>"),
			// TRANSLATORS: This should not start with a lowercase letter.
			desc: i18n.G("The command to show help from"),
		}})
}

func (cmd *cmdHelp) setParser(parser *flags.Parser) {
	cmd.parser = parser
}

func (cmd cmdHelp) Execute(args []string) error {
	if cmd.Manpage {
		cmd.parser.WriteManPage(Stdout)
		return nil
	}
	if cmd.Positional.Sub != "" {
		subcmd := cmd.parser.Find(cmd.Positional.Sub)
		if subcmd == nil {
			return fmt.Errorf(i18n.G(`unknown command %q, see "appshelf --help"`), cmd.Positional.Sub)
		}
		// this makes "appshelf help <cmd>" work the same as "appshelf <cmd> --help"
		cmd.parser.Command.Active = subcmd
	}
	return &flags.Error{Type: flags.ErrHelp}
}
