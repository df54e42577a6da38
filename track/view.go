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

package track

import (
	"context"
	"fmt"
	"sync"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/resolve"
)

// State names the lifecycle position of one app view.
type State string

const (
	// StateUninstalled means no variant of the app is installed.
	StateUninstalled State = "uninstalled"
	// StateInstalled means the installed source matches the selection.
	StateInstalled State = "installed"
	// StateConflicting means the app is installed from a source other
	// than the selected one.
	StateConflicting State = "installed-conflicting"
	// StateInstalling and StateRemoving mean an operation was
	// dispatched and its completion event has not arrived yet.
	StateInstalling State = "installing"
	StateRemoving   State = "removing"
)

// Executor dispatches package operations. Dispatch is fire and
// forget: completion is observed through the hub, never through the
// call's own return value.
type Executor interface {
	Install(ctx context.Context, name, originID, repo string) error
	Remove(ctx context.Context, name, originID string) error
	Launch(ctx context.Context, name string) error
}

// OperationInFlightError reports an operation attempted while another
// one is still running for the same app.
type OperationInFlightError struct {
	App string
	Op  Operation
}

func (e *OperationInFlightError) Error() string {
	return fmt.Sprintf("app %q has %q operation in progress", e.App, e.Op)
}

// View carries the per-app state that outlives a single resolution:
// the selection, the single in-flight operation marker and the status
// tracker. Everything else (variants, evaluation) is recomputed from
// scratch on every resolution.
type View struct {
	executor Executor
	report   Reporter

	mu         sync.Mutex
	id         app.Identity
	tracker    *Tracker
	selected   origin.Source
	userPinned bool
	op         Operation
	opSubject  string
}

// NewView returns a view for the given app. The reporter may be nil.
func NewView(id app.Identity, tracker *Tracker, executor Executor, report Reporter) *View {
	return &View{
		executor: executor,
		report:   report,
		id:       id,
		tracker:  tracker,
	}
}

// Identity returns the app identity the view is for.
func (v *View) Identity() app.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id
}

// Tracker returns the view's status tracker.
func (v *View) Tracker() *Tracker {
	return v.tracker
}

func (v *View) reportf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if v.report != nil {
		v.report.Report(msg)
	} else {
		logger.Noticef("%s", msg)
	}
}

func variantOffered(variants []app.Variant, src origin.Source) bool {
	for _, variant := range variants {
		if variant.Origin.Equal(src) {
			return true
		}
	}
	return false
}

// Selection returns the source selected for the given freshly
// aggregated inputs. An explicit user selection stays authoritative
// while its source remains offered; otherwise the default precedence
// applies, so a fresh installation status retakes the selection
// through its installed-source rule.
func (v *View) Selection(variants []app.Variant, status *app.Status, preferred string, tbl *origin.Table) (origin.Source, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.userPinned && v.selected.ID != "" && variantOffered(variants, v.selected) {
		return v.selected, true
	}

	src, ok := resolve.SelectDefault(v.id, variants, status, preferred, tbl)
	if ok {
		v.selected = src
	} else {
		v.selected = origin.Source{}
	}
	v.userPinned = false
	return src, ok
}

// Switch makes an explicit user selection. The source must be offered
// by one of the given variants; selecting something nobody offers is
// an error.
func (v *View) Switch(variants []app.Variant, originID string) (origin.Source, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, variant := range variants {
		if variant.Origin.Matches(originID) {
			v.selected = variant.Origin
			v.userPinned = true
			return variant.Origin, nil
		}
	}
	return origin.Source{}, fmt.Errorf("app %q has no variant from origin %q", v.id.Name, originID)
}

// InFlight reports the running operation, if any.
func (v *View) InFlight() (Operation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.op, v.op != ""
}

// CurrentState derives the lifecycle state from the in-flight marker,
// the installation status and the conflict evaluation.
func (v *View) CurrentState(status *app.Status, conflict bool) State {
	if op, ok := v.InFlight(); ok {
		if op == OpRemove {
			return StateRemoving
		}
		return StateInstalling
	}
	if status == nil || !status.Installed {
		return StateUninstalled
	}
	if conflict {
		return StateConflicting
	}
	return StateInstalled
}

// markInFlight flips the view into the given operation unless one is
// already running.
func (v *View) markInFlight(op Operation, subject string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.op != "" {
		return &OperationInFlightError{App: v.id.Name, Op: v.op}
	}
	v.op = op
	v.opSubject = subject
	return nil
}

func (v *View) clearInFlight() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.op = ""
	v.opSubject = ""
}

// Install dispatches an install of the given variant. Updates and
// source switches dispatch through here as well; they install a
// concrete variant like everything else. A dispatch failure is
// reported and leaves the view idle.
func (v *View) Install(ctx context.Context, variant app.Variant) error {
	subject := variant.DiskName
	if subject == "" {
		subject = v.Identity().Name
	}
	if err := v.markInFlight(OpInstall, subject); err != nil {
		return err
	}
	if err := v.executor.Install(ctx, subject, variant.Origin.ID, variant.Repo); err != nil {
		v.clearInFlight()
		v.reportf("cannot dispatch install of %q from %q: %v", subject, variant.Origin.ID, err)
		return err
	}
	return nil
}

// Remove dispatches removal of the installed package described by
// status. A dispatch failure is reported and leaves the view idle.
func (v *View) Remove(ctx context.Context, status *app.Status) error {
	subject := v.removalSubject(status)
	if err := v.markInFlight(OpRemove, subject); err != nil {
		return err
	}
	var originID string
	if status != nil {
		originID = status.OriginLabel
	}
	if err := v.executor.Remove(ctx, subject, originID); err != nil {
		v.clearInFlight()
		v.reportf("cannot dispatch removal of %q: %v", subject, err)
		return err
	}
	return nil
}

func (v *View) removalSubject(status *app.Status) string {
	if status != nil && status.DiskName != "" {
		return status.DiskName
	}
	if diskName := v.tracker.DiskName(); diskName != "" {
		return diskName
	}
	return v.Identity().Name
}

// Launch asks the session to start the app. Launching is not an
// installer operation, so no in-flight state is involved.
func (v *View) Launch(ctx context.Context, status *app.Status) error {
	return v.executor.Launch(ctx, v.removalSubject(status))
}

// HandleCompletion notes a completed installer operation, clearing
// the in-flight marker when the event names this view's subject or
// carries no name at all. The caller re-checks the installation
// status unconditionally afterwards, whatever the event said.
func (v *View) HandleCompletion(ev Event) (cleared bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.op == "" {
		return false
	}
	if ev.App == "" || ev.App == v.opSubject || ev.App == v.id.Name {
		v.op = ""
		v.opSubject = ""
		return true
	}
	return false
}
