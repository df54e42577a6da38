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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/i18n"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/resolve"
	"github.com/appshelf/appshelf/track"
)

var appCmd = &Command{
	Path:        "/v2/apps/{name}",
	GET:         getApp,
	POST:        postApp,
	ReadAccess:  openAccess{},
	WriteAccess: rootAccess{},
}

// appResult is the resolved view of one app as served to clients.
type appResult struct {
	Name     string         `json:"name"`
	Variants []app.Variant  `json:"variants"`
	Selected *origin.Source `json:"selected,omitempty"`
	Status   *app.Status    `json:"status,omitempty"`

	Evaluation resolve.Evaluation `json:"evaluation"`
	State      track.State        `json:"state"`
	// Change is the id of the app's unsettled change, if any.
	Change string `json:"change,omitempty"`
}

func (d *Daemon) appResultFor(name string, res *resolution) *appResult {
	result := &appResult{
		Name:       name,
		Variants:   res.variants,
		Status:     res.status,
		Evaluation: res.eval,
		State:      res.state,
	}
	if result.Variants == nil {
		result.Variants = []app.Variant{} // avoid null result
	}
	if res.haveSelected {
		selected := res.selected
		result.Selected = &selected
	}
	if chgID, ok := d.changes.currentFor(name); ok {
		result.Change = chgID
	}
	return result
}

func getApp(c *Command, r *http.Request) Response {
	name := mux.Vars(r)["name"]
	if err := app.ValidateName(name); err != nil {
		return BadRequest("%v", err)
	}

	query := r.URL.Query()
	v := c.d.appView(name)
	res, rspe := c.d.resolveView(r.Context(), v, query.Get("preferred"), query.Get("origin"))
	if rspe != nil {
		return rspe
	}

	if len(res.variants) == 0 && (res.status == nil || !res.status.Installed) {
		return AppNotFound(name)
	}

	return SyncResponse(c.d.appResultFor(name, res))
}

// appInstruction is the POST body for an app action.
type appInstruction struct {
	Action string `json:"action"`
	// Origin names the source an install or switch should use; for
	// install it is optional and pins the selection first.
	Origin string `json:"origin,omitempty"`
}

type appActionFunc func(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response

func (inst *appInstruction) dispatch() appActionFunc {
	switch inst.Action {
	case "install":
		return appInstall
	case "remove":
		return appRemove
	case "switch":
		return appSwitch
	case "update":
		return appUpdate
	case "launch":
		return appLaunch
	}
	return nil
}

func postApp(c *Command, r *http.Request) Response {
	name := mux.Vars(r)["name"]
	if err := app.ValidateName(name); err != nil {
		return BadRequest("%v", err)
	}

	var inst appInstruction
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&inst); err != nil {
		return BadRequest("cannot decode request body into app instruction: %v", err)
	}

	action := inst.dispatch()
	if action == nil {
		return BadRequest("unknown action %q", inst.Action)
	}

	return action(r.Context(), c.d, c.d.appView(name), &inst)
}

// selectedVariant returns the variant offered by the resolution's
// selected source.
func selectedVariant(res *resolution) (app.Variant, bool) {
	if !res.haveSelected {
		return app.Variant{}, false
	}
	for _, variant := range res.variants {
		if variant.Origin.Equal(res.selected) {
			return variant, true
		}
	}
	return app.Variant{}, false
}

func appInstall(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response {
	name := v.Identity().Name
	res, rspe := d.resolveView(ctx, v, "", inst.Origin)
	if rspe != nil {
		return rspe
	}
	if len(res.variants) == 0 {
		return AppNotFound(name)
	}
	variant, ok := selectedVariant(res)
	if !ok {
		return InternalError("cannot find a variant of %q from origin %q", name, res.selected.ID)
	}

	chgID := d.changes.start("install-app", fmt.Sprintf(i18n.G("Install %q from %q"), name, variant.Origin.ID), name)
	if err := v.Install(ctx, variant); err != nil {
		d.changes.drop(chgID)
		return errToResponse(err)
	}
	return AsyncResponse(nil, chgID)
}

func appRemove(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response {
	name := v.Identity().Name
	res, rspe := d.resolveView(ctx, v, "", "")
	if rspe != nil {
		return rspe
	}
	if res.status == nil || !res.status.Installed {
		return BadRequest("cannot remove app %q: it is not installed", name)
	}

	chgID := d.changes.start("remove-app", fmt.Sprintf(i18n.G("Remove %q"), name), name)
	if err := v.Remove(ctx, res.status); err != nil {
		d.changes.drop(chgID)
		return errToResponse(err)
	}
	return AsyncResponse(nil, chgID)
}

func appSwitch(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response {
	if inst.Origin == "" {
		return BadRequest("switch requires an origin")
	}
	name := v.Identity().Name
	res, rspe := d.resolveView(ctx, v, "", inst.Origin)
	if rspe != nil {
		return rspe
	}
	variant, ok := selectedVariant(res)
	if !ok {
		return InternalError("cannot find a variant of %q from origin %q", name, inst.Origin)
	}

	chgID := d.changes.start("switch-app", fmt.Sprintf(i18n.G("Switch %q to %q"), name, variant.Origin.ID), name)
	if err := v.Install(ctx, variant); err != nil {
		d.changes.drop(chgID)
		return errToResponse(err)
	}
	return AsyncResponse(nil, chgID)
}

func appUpdate(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response {
	name := v.Identity().Name
	res, rspe := d.resolveView(ctx, v, "", "")
	if rspe != nil {
		return rspe
	}
	if !res.eval.UpdateAvailable {
		return BadRequest("no update available for app %q", name)
	}
	variant, ok := selectedVariant(res)
	if !ok {
		return InternalError("cannot find a variant of %q from origin %q", name, res.selected.ID)
	}

	chgID := d.changes.start("update-app", fmt.Sprintf(i18n.G("Update %q to %s"), name, variant.Version), name)
	if err := v.Install(ctx, variant); err != nil {
		d.changes.drop(chgID)
		return errToResponse(err)
	}
	return AsyncResponse(nil, chgID)
}

func appLaunch(ctx context.Context, d *Daemon, v *track.View, inst *appInstruction) Response {
	name := v.Identity().Name
	res, rspe := d.resolveView(ctx, v, "", "")
	if rspe != nil {
		return rspe
	}
	if res.status == nil || !res.status.Installed {
		return BadRequest("cannot launch app %q: it is not installed", name)
	}
	if err := v.Launch(ctx, res.status); err != nil {
		return errToResponse(err)
	}
	return SyncResponse(nil)
}
