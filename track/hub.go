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

// Package track holds the stateful side of the resolution engine: the
// completion-event plumbing, the race-guarded installation status
// tracker and the per-app view state machine.
package track

import (
	"sync"
	"time"

	"github.com/appshelf/appshelf/logger"
)

// Operation names an installer operation.
type Operation string

const (
	// OpInstall covers fresh installs, updates and source switches;
	// they all dispatch an install of a concrete variant.
	OpInstall Operation = "install"
	// OpRemove removes the installed package.
	OpRemove Operation = "remove"
)

// Event describes one completed installer operation as observed on
// the system bus. The payload is best effort; consumers re-check
// installation state instead of trusting it.
type Event struct {
	App     string    `json:"app,omitempty"`
	Op      Operation `json:"op,omitempty"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// subscriptionBuffer is how many undelivered events a subscriber may
// lag behind before events are dropped for it.
const subscriptionBuffer = 16

// Hub fans completion events out to subscribers and records them in
// an optional journal.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	journal *Journal
}

// NewHub returns a hub. The journal may be nil; when given, every
// published event is appended to it before fan-out.
func NewHub(journal *Journal) *Hub {
	return &Hub{
		subs:    make(map[int]chan Event),
		journal: journal,
	}
}

// Subscription delivers completion events on C until closed. Every
// holder must call Close when done or the hub keeps publishing into
// its buffer forever.
type Subscription struct {
	hub *Hub
	id  int

	// C carries the events.
	C <-chan Event
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriptionBuffer)
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	return &Subscription{hub: h, id: id, C: ch}
}

// Close unregisters the subscription and closes its channel. It is
// safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if ch, ok := s.hub.subs[s.id]; ok {
		delete(s.hub.subs, s.id)
		close(ch)
	}
}

// Publish journals the event and delivers it to every subscriber.
// Subscribers that stopped draining their channel lose events rather
// than block the publisher.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.journal != nil {
		h.journal.Append(ev)
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Noticef("dropping completion event for %q: subscriber not draining", ev.App)
		}
	}
}
