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

// Package resolve implements the decision core for one application
// view: merging the candidate variants reported by every source,
// choosing which source to preselect and deriving whether the view
// shows a source conflict or an available update. Everything in this
// package is a pure function of its inputs so results can be
// recomputed on every state change without staleness.
package resolve

import (
	"strings"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/strutil"
)

// Aggregate merges the variant inputs for one app into the candidate
// list shown to the user. The backend listing is authoritative; when
// it is empty the hints carried by the originating search result are
// used instead so the app the user just saw does not vanish. Declared
// alternatives are merged after either. At most one variant survives
// per source id, first seen wins, and variants without a resolvable
// version are dropped.
func Aggregate(id app.Identity, backend, declared, hints []app.Variant) []app.Variant {
	primary := backend
	if len(primary) == 0 {
		primary = hints
	}

	var merged []app.Variant
	seen := make(map[string]bool, len(primary)+len(declared))
	add := func(v app.Variant) {
		if strings.TrimSpace(v.Version) == "" {
			return
		}
		key := strings.ToLower(v.Origin.ID)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		merged = append(merged, v)
	}
	for _, v := range primary {
		add(v)
	}
	for _, v := range declared {
		add(v)
	}
	return merged
}

// BuildDeclared resolves manually declared alternatives against the
// origin table. Alternatives naming an origin missing from the table
// are skipped.
func BuildDeclared(tbl *origin.Table, alts []app.Alternative) []app.Variant {
	var out []app.Variant
	for _, alt := range alts {
		src, ok := tbl.Lookup(alt.Origin)
		if !ok {
			logger.Noticef("ignoring declared alternative from unknown origin %q", alt.Origin)
			continue
		}
		out = append(out, app.Variant{
			Origin:   src,
			Version:  alt.Version,
			Repo:     alt.Repo,
			DiskName: alt.DiskName,
		})
	}
	return out
}

// statusNamesVariant reports whether the installed status names the
// variant's source. Backends report the source id, its label or the
// repository qualifier, with inconsistent casing.
func statusNamesVariant(st *app.Status, v app.Variant) bool {
	name := st.OriginLabel
	if name == "" {
		return false
	}
	if v.Origin.Matches(name) {
		return true
	}
	return v.Repo != "" && strings.EqualFold(v.Repo, name)
}

// variantFor finds the variant offered by the given source.
func variantFor(variants []app.Variant, src origin.Source) (app.Variant, bool) {
	for _, v := range variants {
		if v.Origin.Equal(src) {
			return v, true
		}
	}
	return app.Variant{}, false
}

// SelectDefault picks the source to preselect for an app. Precedence,
// first match wins: the installed source, the caller's preferred
// source, the app's own declared default, the priority table, the
// first aggregated variant. The result is always the source of one of
// the given variants; when variants is empty no selection is made.
func SelectDefault(id app.Identity, variants []app.Variant, status *app.Status, preferred string, tbl *origin.Table) (origin.Source, bool) {
	if len(variants) == 0 {
		return origin.Source{}, false
	}
	// what is on disk wins over any preference
	if status != nil && status.Installed && status.OriginLabel != "" {
		for _, v := range variants {
			if statusNamesVariant(status, v) {
				return v.Origin, true
			}
		}
	}
	if preferred != "" {
		for _, v := range variants {
			if v.Origin.Matches(preferred) {
				return v.Origin, true
			}
		}
	}
	if id.DefaultOrigin != "" {
		for _, v := range variants {
			if v.Origin.Matches(id.DefaultOrigin) {
				return v.Origin, true
			}
		}
	}
	for _, src := range tbl.Sources() {
		for _, v := range variants {
			if v.Origin.Equal(src) {
				return v.Origin, true
			}
		}
	}
	return variants[0].Origin, true
}

// Evaluation is the derived state of one app view. It is recomputed
// from scratch whenever the variants, the selection or the
// installation status change and never cached across changes.
type Evaluation struct {
	// Conflict means the selected source differs from the source the
	// installed package came from; the offered action is a source
	// switch rather than an update.
	Conflict bool `json:"conflict"`
	// UpdateAvailable means the selected source offers a newer
	// version than the installed one, from the same source.
	UpdateAvailable bool `json:"update-available"`
	// CandidateVersion is the version offered by the selected source.
	CandidateVersion string `json:"candidate-version,omitempty"`
	// Risky marks the selected source as a known-risky combination
	// with the host distribution. Advisory only.
	Risky bool `json:"risky,omitempty"`
}

// Evaluate derives the view state for an app given the aggregated
// variants, the selected source, the current installation status, the
// origin table and the names the host distribution is known under.
func Evaluate(id app.Identity, variants []app.Variant, selected origin.Source, status *app.Status, tbl *origin.Table, hosts []string) Evaluation {
	var ev Evaluation

	selVar, haveVariant := variantFor(variants, selected)
	if haveVariant {
		ev.CandidateVersion = selVar.Version
	} else {
		// selection normally resolves to a variant; keep showing the
		// last known version when it does not
		ev.CandidateVersion = id.DisplayVersion
	}
	if selected.ID == "" {
		return ev
	}

	ev.Risky = tbl.Risky(hosts, selected)

	if status == nil || !status.Installed {
		return ev
	}
	if status.OriginLabel != "" {
		same := selected.Matches(status.OriginLabel)
		if !same && haveVariant && selVar.Repo != "" && strings.EqualFold(selVar.Repo, status.OriginLabel) {
			same = true
		}
		ev.Conflict = !same
	}
	// an update is only meaningful within the installed source's own
	// lineage; a newer version from a conflicting source is a switch
	if !ev.Conflict && strutil.VersionCompare(ev.CandidateVersion, status.Version) > 0 {
		ev.UpdateAvailable = true
	}
	return ev
}
