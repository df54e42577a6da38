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
	"sync"
)

// journalCap bounds how many events the journal retains; the oldest
// are discarded first. Clients that lag further than this re-sync via
// the returned ids.
const journalCap = 128

// Recorded is an event together with its journal position. Positions
// increase strictly and never repeat within one daemon run.
type Recorded struct {
	ID int `json:"id"`
	Event
}

// Journal keeps the recent completion events and lets clients wait
// for events they have not seen yet.
type Journal struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []Recorded
	nextID int
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	j := &Journal{nextID: 1}
	j.cond = sync.NewCond(&j.mu)
	return j
}

// Append records an event and wakes up waiters.
func (j *Journal) Append(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, Recorded{ID: j.nextID, Event: ev})
	j.nextID++
	if len(j.events) > journalCap {
		j.events = j.events[len(j.events)-journalCap:]
	}
	j.cond.Broadcast()
}

func (j *Journal) sinceLocked(after int) []Recorded {
	start := len(j.events)
	for i, r := range j.events {
		if r.ID > after {
			start = i
			break
		}
	}
	if start == len(j.events) {
		return nil
	}
	out := make([]Recorded, len(j.events)-start)
	copy(out, j.events[start:])
	return out
}

// Since returns the retained events with an id greater than after.
// Pass 0 for all retained events.
func (j *Journal) Since(after int) []Recorded {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sinceLocked(after)
}

// WaitEvents returns the events with an id greater than after,
// blocking until at least one exists or the context is done.
func (j *Journal) WaitEvents(ctx context.Context, after int) ([]Recorded, error) {
	// Wake up the waiters when the context is done so they can
	// notice their ctx.Err() and bail out.
	stop := context.AfterFunc(ctx, func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.cond.Broadcast()
	})
	defer stop()

	j.mu.Lock()
	defer j.mu.Unlock()

	for {
		if events := j.sinceLocked(after); len(events) > 0 {
			return events, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		j.cond.Wait()
	}
}
