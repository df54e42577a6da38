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
)

// StatusBackend answers installation status queries, typically over
// the system bus.
type StatusBackend interface {
	QueryInstalled(ctx context.Context, name string) (app.Status, error)
}

// Reporter receives human-readable failure descriptions. Failures
// reported here never clear previously known state.
type Reporter interface {
	Report(msg string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(msg string)

// Report calls f.
func (f ReporterFunc) Report(msg string) { f(msg) }

// NameMemo remembers learned on-disk names across daemon runs.
type NameMemo interface {
	DiskName(name string) (string, bool)
	SetDiskName(name, diskName string) error
}

// Tracker reconciles asynchronous installation status queries for one
// app. Queries may complete out of order; the tracker accepts a
// response only when it belongs to the most recently issued query, so
// a slow answer for an old question can never overwrite a newer fact.
type Tracker struct {
	backend StatusBackend
	memo    NameMemo
	report  Reporter

	mu       sync.Mutex
	identity app.Identity
	issued   uint64
	status   *app.Status
	diskName string
}

// NewTracker returns a tracker for the given app. The memo and the
// reporter may be nil.
func NewTracker(id app.Identity, backend StatusBackend, memo NameMemo, report Reporter) *Tracker {
	t := &Tracker{
		backend:  backend,
		memo:     memo,
		report:   report,
		identity: id,
	}
	if memo != nil {
		if diskName, ok := memo.DiskName(id.Name); ok {
			t.diskName = diskName
		}
	}
	return t
}

// subjectLocked resolves the name to query: a previously learned
// on-disk name first, then the selected variant's declared name, then
// the bare app name.
func (t *Tracker) subjectLocked(selectedDiskName string) string {
	if t.diskName != "" {
		return t.diskName
	}
	if selectedDiskName != "" {
		return selectedDiskName
	}
	return t.identity.Name
}

func (t *Tracker) reportf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if t.report != nil {
		t.report.Report(msg)
	} else {
		logger.Noticef("%s", msg)
	}
}

// Refresh issues a status query. selectedDiskName is the on-disk name
// declared by the currently selected variant, when it has one.
//
// The returned status is the authoritative snapshot after the call:
// the fresh answer when it was accepted, the previous one when the
// answer arrived for a superseded query or the query failed. A
// failure is reported and returned but never clears known state.
func (t *Tracker) Refresh(ctx context.Context, selectedDiskName string) (*app.Status, error) {
	t.mu.Lock()
	t.issued++
	seq := t.issued
	subject := t.subjectLocked(selectedDiskName)
	t.mu.Unlock()

	st, err := t.backend.QueryInstalled(ctx, subject)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.reportf("cannot check installation status of %q: %v", subject, err)
		return t.currentLocked(), err
	}
	if seq != t.issued {
		// a newer query was issued while this one was in flight;
		// its answer wins no matter which response arrived first
		return t.currentLocked(), nil
	}
	t.status = &st
	if st.DiskName != "" && st.DiskName != t.diskName {
		t.diskName = st.DiskName
		if t.memo != nil {
			if err := t.memo.SetDiskName(t.identity.Name, st.DiskName); err != nil {
				logger.Noticef("cannot remember on-disk name of %q: %v", t.identity.Name, err)
			}
		}
	}
	return t.currentLocked(), nil
}

func (t *Tracker) currentLocked() *app.Status {
	if t.status == nil {
		return nil
	}
	st := *t.status
	return &st
}

// Current returns a copy of the last accepted status, or nil when no
// query has succeeded yet.
func (t *Tracker) Current() *app.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked()
}

// DiskName returns the learned on-disk name, when one is known.
func (t *Tracker) DiskName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.diskName
}
