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

// Package origin models the families a package can come from and the
// policy that orders them. One logical application may be offered by
// the official repositories, a prebuilt community repository, a
// source-building community, a distro spin's extra repository or an
// alternate packaging format; the table in this package decides which
// of those wins by default and which combinations are risky on a
// given host.
package origin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind classifies how a source delivers packages.
type Kind string

const (
	// KindBinaryRepo marks sources serving prebuilt binary packages.
	KindBinaryRepo Kind = "binary-repo"
	// KindSourceBuild marks sources that build from source on the host.
	KindSourceBuild Kind = "source-build"
	// KindAlternateFormat marks sources using a packaging format
	// foreign to the host's native package manager.
	KindAlternateFormat Kind = "alternate-format"
)

func validKind(k Kind) bool {
	switch k {
	case KindBinaryRepo, KindSourceBuild, KindAlternateFormat:
		return true
	}
	return false
}

// ErrUnknown is returned when a source id does not appear in the table.
var ErrUnknown = errors.New("unknown origin")

// Source identifies one package origin family.
type Source struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Kind  Kind   `yaml:"kind" json:"kind"`
}

// Equal reports whether two sources identify the same origin family.
// Sources compare by id, never by label, and ids are case-insensitive.
func (s Source) Equal(other Source) bool {
	return strings.EqualFold(s.ID, other.ID)
}

// Matches reports whether the given name refers to this source, either
// by id or by human label, ignoring case. Status reports from package
// backends name origins inconsistently, so both spellings count.
func (s Source) Matches(name string) bool {
	return strings.EqualFold(s.ID, name) || strings.EqualFold(s.Label, name)
}

// RiskRule flags a host/source combination as risky, for example a
// stability-pinned distro spin paired with a repository tracking
// bleeding-edge core libraries. Both fields are glob patterns matched
// case-insensitively; Host is matched against the host distribution id
// and its family, Source against the source id.
type RiskRule struct {
	Host   string `yaml:"host" json:"host"`
	Source string `yaml:"source" json:"source"`
}

// Table is an ordered source priority table. Earlier entries win when
// a package is available from several sources and no stronger
// preference applies.
type Table struct {
	sources []Source
	rank    map[string]int
	risky   []RiskRule
}

// NewTable builds a table from the given sources, in priority order,
// and risk rules.
func NewTable(sources []Source, risky []RiskRule) (*Table, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("cannot use an origin table without sources")
	}
	t := &Table{
		sources: make([]Source, len(sources)),
		rank:    make(map[string]int, len(sources)),
		risky:   make([]RiskRule, len(risky)),
	}
	copy(t.sources, sources)
	copy(t.risky, risky)
	for i, src := range t.sources {
		if src.ID == "" {
			return nil, fmt.Errorf("cannot use a source with an empty id")
		}
		if !validKind(src.Kind) {
			return nil, fmt.Errorf("cannot use source %q with unknown kind %q", src.ID, src.Kind)
		}
		key := strings.ToLower(src.ID)
		if _, ok := t.rank[key]; ok {
			return nil, fmt.Errorf("cannot use duplicated source id %q", src.ID)
		}
		t.rank[key] = i
	}
	for _, r := range t.risky {
		if !doublestar.ValidatePattern(r.Host) {
			return nil, fmt.Errorf("cannot use invalid host pattern %q", r.Host)
		}
		if !doublestar.ValidatePattern(r.Source) {
			return nil, fmt.Errorf("cannot use invalid source pattern %q", r.Source)
		}
	}
	return t, nil
}

// Sources returns the table's sources in priority order.
func (t *Table) Sources() []Source {
	out := make([]Source, len(t.sources))
	copy(out, t.sources)
	return out
}

// RiskRules returns the table's risk rules.
func (t *Table) RiskRules() []RiskRule {
	out := make([]RiskRule, len(t.risky))
	copy(out, t.risky)
	return out
}

// Lookup finds the source with the given id, ignoring case.
func (t *Table) Lookup(id string) (Source, bool) {
	if i, ok := t.rank[strings.ToLower(id)]; ok {
		return t.sources[i], true
	}
	return Source{}, false
}

// Find is like Lookup but returns ErrUnknown for ids not in the table.
func (t *Table) Find(id string) (Source, error) {
	src, ok := t.Lookup(id)
	if !ok {
		return Source{}, fmt.Errorf("%w %q", ErrUnknown, id)
	}
	return src, nil
}

// Rank returns the priority position of the given source id, lower
// wins. Ids not in the table rank below every table entry.
func (t *Table) Rank(id string) int {
	if i, ok := t.rank[strings.ToLower(id)]; ok {
		return i
	}
	return len(t.sources)
}

// Risky reports whether installing from the given source is a known
// risky combination on a host known under the given names. The usual
// host names are the distribution id and its family.
func (t *Table) Risky(hosts []string, src Source) bool {
	id := strings.ToLower(src.ID)
	for _, r := range t.risky {
		// patterns were validated when the table was built
		if ok, _ := doublestar.Match(strings.ToLower(r.Source), id); !ok {
			continue
		}
		for _, host := range hosts {
			if ok, _ := doublestar.Match(strings.ToLower(r.Host), strings.ToLower(host)); ok {
				return true
			}
		}
	}
	return false
}

// DefaultTable returns the built-in priority table: the prebuilt
// community repository beats the official repositories, which beat
// the distro spin extras, which beat building from source; alternate
// format bundles come last. The built-in risk rules flag community
// sources on stability-pinned spin hosts.
func DefaultTable() *Table {
	t, err := NewTable([]Source{
		{ID: "community-bin", Label: "Community prebuilt", Kind: KindBinaryRepo},
		{ID: "official", Label: "Official repositories", Kind: KindBinaryRepo},
		{ID: "spin-extras", Label: "Spin extras", Kind: KindBinaryRepo},
		{ID: "community-src", Label: "Community source build", Kind: KindSourceBuild},
		{ID: "portable", Label: "Portable bundles", Kind: KindAlternateFormat},
	}, []RiskRule{
		{Host: "manjaro*", Source: "community-*"},
	})
	if err != nil {
		panic(fmt.Sprintf("internal error: built-in origin table is invalid: %v", err))
	}
	return t
}
