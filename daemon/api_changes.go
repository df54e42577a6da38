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
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/appshelf/appshelf/track"
)

var changeCmd = &Command{
	Path:       "/v2/changes/{id}",
	GET:        getChange,
	ReadAccess: openAccess{},
}

// change describes one asynchronous operation accepted by the daemon.
type change struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Err     string `json:"err,omitempty"`
	App     string `json:"app,omitempty"`

	SpawnTime time.Time  `json:"spawn-time"`
	ReadyTime *time.Time `json:"ready-time,omitempty"`
}

// maxReadyChanges bounds how many settled changes are kept around for
// clients that poll late.
const maxReadyChanges = 100

// changeSet tracks the daemon's changes. Completion arrives as a bare
// event, so at most one unsettled change is current per app and a
// completion event settles that one.
type changeSet struct {
	mu      sync.Mutex
	nextID  int
	changes map[string]*change
	// current maps an app name to its unsettled change id
	current map[string]string
	// order holds the change ids oldest first, for pruning
	order []string
}

func newChangeSet() *changeSet {
	return &changeSet{
		nextID:  1,
		changes: make(map[string]*change),
		current: make(map[string]string),
	}
}

// start registers a new change for the app before its operation is
// dispatched, so a completion arriving immediately still finds it.
func (cs *changeSet) start(kind, summary, appName string) string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	id := strconv.Itoa(cs.nextID)
	cs.nextID++
	cs.changes[id] = &change{
		ID:        id,
		Kind:      kind,
		Summary:   summary,
		Status:    "Doing",
		App:       appName,
		SpawnTime: time.Now(),
	}
	cs.order = append(cs.order, id)
	cs.current[appName] = id
	cs.pruneLocked()
	return id
}

// drop forgets a change whose operation failed to dispatch.
func (cs *changeSet) drop(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	chg, ok := cs.changes[id]
	if !ok {
		return
	}
	delete(cs.changes, id)
	for i, oid := range cs.order {
		if oid == id {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
	if cs.current[chg.App] != id {
		return
	}
	delete(cs.current, chg.App)
	// an earlier change may still be running for the app
	for i := len(cs.order) - 1; i >= 0; i-- {
		if prev := cs.changes[cs.order[i]]; prev.App == chg.App && !prev.Ready {
			cs.current[chg.App] = prev.ID
			break
		}
	}
}

// finishFor settles the app's current change with the completion event.
func (cs *changeSet) finishFor(appName string, ev track.Event) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	id, ok := cs.current[appName]
	if !ok {
		return
	}
	chg := cs.changes[id]
	if chg == nil || chg.Ready {
		return
	}
	now := time.Now()
	chg.Ready = true
	chg.ReadyTime = &now
	if ev.Success {
		chg.Status = "Done"
	} else {
		chg.Status = "Error"
		chg.Err = ev.Message
	}
	delete(cs.current, appName)
}

// get returns a copy of the change with the given id.
func (cs *changeSet) get(id string) (change, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	chg, ok := cs.changes[id]
	if !ok {
		return change{}, false
	}
	return *chg, true
}

// currentFor returns the id of the app's unsettled change, if any.
func (cs *changeSet) currentFor(appName string) (string, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	id, ok := cs.current[appName]
	return id, ok
}

func (cs *changeSet) pruneLocked() {
	ready := 0
	for _, id := range cs.order {
		if cs.changes[id].Ready {
			ready++
		}
	}
	if ready <= maxReadyChanges {
		return
	}
	kept := cs.order[:0]
	for _, id := range cs.order {
		if ready > maxReadyChanges && cs.changes[id].Ready {
			delete(cs.changes, id)
			ready--
			continue
		}
		kept = append(kept, id)
	}
	cs.order = kept
}

func getChange(c *Command, r *http.Request) Response {
	chgID := mux.Vars(r)["id"]
	chg, ok := c.d.changes.get(chgID)
	if !ok {
		return NotFound("cannot find change with id %q", chgID)
	}
	return SyncResponse(chg)
}
