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

package daemon

import (
	"context"
	"fmt"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/release"
	"github.com/appshelf/appshelf/resolve"
	"github.com/appshelf/appshelf/track"
)

// appView returns the view tracking the given app, building it on
// first use.
func (d *Daemon) appView(name string) *track.View {
	d.viewsMu.Lock()
	defer d.viewsMu.Unlock()

	if v, ok := d.views[name]; ok {
		return v
	}

	id := app.Identity{Name: name}
	if d.memo != nil {
		if version, ok := d.memo.DisplayVersion(name); ok {
			id.DisplayVersion = version
		}
	}
	report := d.reporterFor(name)
	tracker := track.NewTracker(id, d.backend, d.memo, report)
	v := track.NewView(id, tracker, d.backend, report)
	d.views[name] = v
	return v
}

// appViews snapshots the current views.
func (d *Daemon) appViews() []*track.View {
	d.viewsMu.Lock()
	defer d.viewsMu.Unlock()

	views := make([]*track.View, 0, len(d.views))
	for _, v := range d.views {
		views = append(views, v)
	}
	return views
}

func (d *Daemon) reporterFor(name string) track.Reporter {
	return track.ReporterFunc(func(msg string) {
		d.report(name, msg)
	})
}

// report logs a failure and records it in the journal. Reports bypass
// the hub: a failure to ask about an app must not look like the
// completion of one of its operations.
func (d *Daemon) report(appName, msg string) {
	logger.Noticef("%s", msg)
	d.journal.Append(track.Event{
		App:     appName,
		Success: false,
		Message: msg,
	})
}

// resolution is everything one pass over an app view produced.
type resolution struct {
	variants     []app.Variant
	selected     origin.Source
	haveSelected bool
	status       *app.Status
	eval         resolve.Evaluation
	state        track.State
}

// hostNames lists the names the host distribution is known under: its
// own id first, then the spin variant id, then the family ids. Risk
// rules match any of them.
func hostNames() []string {
	names := []string{release.ReleaseInfo.ID}
	if release.ReleaseInfo.VariantID != "" {
		names = append(names, release.ReleaseInfo.VariantID)
	}
	return append(names, release.ReleaseInfo.IDLike...)
}

// diskNameFor returns the declared on-disk name of the variant offered
// by the given source.
func diskNameFor(variants []app.Variant, src origin.Source) string {
	for _, v := range variants {
		if v.Origin.Equal(src) {
			return v.DiskName
		}
	}
	return ""
}

// resolveView runs one resolution pass over the view: aggregate the
// variants, honor an explicit origin pin, refresh the installation
// status and derive the evaluation and lifecycle state.
func (d *Daemon) resolveView(ctx context.Context, v *track.View, preferred, originID string) (*resolution, *apiError) {
	id := v.Identity()

	backendVariants, err := d.catalog.Variants(ctx, id.Name)
	if err != nil {
		// the catalog being down must not take resolution down with it
		d.report(id.Name, fmt.Sprintf("cannot list catalog variants of %q: %v", id.Name, err))
		backendVariants = nil
	}
	declared := resolve.BuildDeclared(d.origins, d.alts[id.Name])
	variants := resolve.Aggregate(id, backendVariants, declared, nil)

	if originID != "" {
		if _, err := d.origins.Find(originID); err != nil {
			return nil, errToResponse(err)
		}
		if _, err := v.Switch(variants, originID); err != nil {
			return nil, BadRequest("%v", err)
		}
	}

	// a provisional selection decides which disk name to ask about
	sel0, _ := v.Selection(variants, v.Tracker().Current(), preferred, d.origins)
	st, _ := v.Tracker().Refresh(ctx, diskNameFor(variants, sel0))

	selected, haveSelected := v.Selection(variants, st, preferred, d.origins)
	eval := resolve.Evaluate(id, variants, selected, st, d.origins, hostNames())
	state := v.CurrentState(st, eval.Conflict)

	if eval.CandidateVersion != "" && d.memo != nil {
		if cur, ok := d.memo.DisplayVersion(id.Name); !ok || cur != eval.CandidateVersion {
			if err := d.memo.SetDisplayVersion(id.Name, eval.CandidateVersion); err != nil {
				logger.Noticef("cannot remember display version of %q: %v", id.Name, err)
			}
		}
	}

	return &resolution{
		variants:     variants,
		selected:     selected,
		haveSelected: haveSelected,
		status:       st,
		eval:         eval,
		state:        state,
	}, nil
}

// watchCompletions feeds completion events from the hub into the app
// views until the daemon dies.
func (d *Daemon) watchCompletions() error {
	sub := d.hub.Subscribe()
	defer sub.Close()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			d.handleCompletion(ev)
		case <-d.tomb.Dying():
			return nil
		}
	}
}

// handleCompletion clears in-flight markers, settles the affected
// changes and re-checks the installation status of every live view.
// A completed operation may have changed what is installed for any of
// them, whatever app the event names.
func (d *Daemon) handleCompletion(ev track.Event) {
	for _, v := range d.appViews() {
		if v.HandleCompletion(ev) {
			d.changes.finishFor(v.Identity().Name, ev)
		}
		// the event payload is best effort; what is actually
		// installed is re-checked, not inferred
		v.Tracker().Refresh(context.Background(), "")
	}
}
