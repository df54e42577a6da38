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

package track_test

import (
	"context"
	"errors"
	"sync"

	. "gopkg.in/check.v1"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/track"
)

type backendReply struct {
	status app.Status
	err    error
}

// recordingBackend answers scripted replies in order, the last one
// sticking, and records the names it was asked about.
type recordingBackend struct {
	mu      sync.Mutex
	queries []string
	replies []backendReply
}

func (b *recordingBackend) QueryInstalled(ctx context.Context, name string) (app.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, name)
	if len(b.replies) == 0 {
		return app.Status{}, nil
	}
	reply := b.replies[0]
	if len(b.replies) > 1 {
		b.replies = b.replies[1:]
	}
	return reply.status, reply.err
}

func (b *recordingBackend) queried() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

// gatedBackend blocks every query until the test releases it, so
// tests control exactly when and in which order responses land.
type gatedCall struct {
	name  string
	reply chan backendReply
}

type gatedBackend struct {
	calls chan *gatedCall
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{calls: make(chan *gatedCall, 4)}
}

func (b *gatedBackend) QueryInstalled(ctx context.Context, name string) (app.Status, error) {
	call := &gatedCall{name: name, reply: make(chan backendReply, 1)}
	b.calls <- call
	r := <-call.reply
	return r.status, r.err
}

type memoStore struct {
	names  map[string]string
	setErr error
	sets   [][2]string
}

func (m *memoStore) DiskName(name string) (string, bool) {
	diskName, ok := m.names[name]
	return diskName, ok
}

func (m *memoStore) SetDiskName(name, diskName string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.names == nil {
		m.names = make(map[string]string)
	}
	m.names[name] = diskName
	m.sets = append(m.sets, [2]string{name, diskName})
	return nil
}

type recordingReporter struct {
	msgs []string
}

func (r *recordingReporter) Report(msg string) {
	r.msgs = append(r.msgs, msg)
}

type trackerSuite struct {
	id app.Identity
}

var _ = Suite(&trackerSuite{})

func (s *trackerSuite) SetUpTest(c *C) {
	s.id = app.Identity{Name: "gimp", DefaultOrigin: "official", DisplayVersion: "3.0.1"}
}

func (s *trackerSuite) TestRefreshAcceptsFreshStatus(c *C) {
	backend := &recordingBackend{replies: []backendReply{
		{status: app.Status{Installed: true, Version: "3.0.1", OriginLabel: "official"}},
	}}
	tracker := track.NewTracker(s.id, backend, nil, nil)

	st, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, IsNil)
	c.Assert(st, NotNil)
	c.Check(st.Installed, Equals, true)
	c.Check(st.Version, Equals, "3.0.1")

	// callers get a copy, not a window into the tracker
	st.Version = "tampered"
	c.Check(tracker.Current().Version, Equals, "3.0.1")
}

func (s *trackerSuite) TestRefreshSubjectPrecedence(c *C) {
	backend := &recordingBackend{replies: []backendReply{
		{status: app.Status{Installed: false}},
		{status: app.Status{Installed: true, Version: "3.0.1", DiskName: "gimp-git"}},
		{status: app.Status{Installed: true, Version: "3.0.1", DiskName: "gimp-git"}},
	}}
	tracker := track.NewTracker(s.id, backend, nil, nil)

	// nothing learned and nothing selected: bare app name
	_, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, IsNil)

	// the selected variant's on-disk name takes over
	_, err = tracker.Refresh(context.Background(), "gimp-flatpak")
	c.Assert(err, IsNil)

	// the name learned from the last answer beats both from now on
	_, err = tracker.Refresh(context.Background(), "gimp-flatpak")
	c.Assert(err, IsNil)

	c.Check(backend.queried(), DeepEquals, []string{"gimp", "gimp-flatpak", "gimp-git"})
	c.Check(tracker.DiskName(), Equals, "gimp-git")
}

func (s *trackerSuite) TestRefreshFailureKeepsLastKnownGood(c *C) {
	backend := &recordingBackend{replies: []backendReply{
		{status: app.Status{Installed: true, Version: "3.0.1", OriginLabel: "official"}},
		{err: errors.New("backend gone fishing")},
	}}
	reporter := &recordingReporter{}
	tracker := track.NewTracker(s.id, backend, nil, reporter)

	_, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, IsNil)

	st, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, ErrorMatches, "backend gone fishing")
	c.Assert(st, NotNil)
	c.Check(st.Version, Equals, "3.0.1")
	c.Assert(reporter.msgs, HasLen, 1)
	c.Check(reporter.msgs[0], Equals, `cannot check installation status of "gimp": backend gone fishing`)

	c.Check(tracker.Current().Version, Equals, "3.0.1")
}

func (s *trackerSuite) TestRefreshFailureBeforeAnySuccess(c *C) {
	backend := &recordingBackend{replies: []backendReply{
		{err: errors.New("no bus")},
	}}
	tracker := track.NewTracker(s.id, backend, nil, &recordingReporter{})

	st, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, ErrorMatches, "no bus")
	c.Check(st, IsNil)
	c.Check(tracker.Current(), IsNil)
}

type refreshResult struct {
	status *app.Status
	err    error
}

func (s *trackerSuite) refreshAsync(tracker *track.Tracker) chan refreshResult {
	done := make(chan refreshResult, 1)
	go func() {
		st, err := tracker.Refresh(context.Background(), "")
		done <- refreshResult{st, err}
	}()
	return done
}

func (s *trackerSuite) TestLateAnswerForSupersededQueryIsDiscarded(c *C) {
	backend := newGatedBackend()
	tracker := track.NewTracker(s.id, backend, nil, nil)

	doneA := s.refreshAsync(tracker)
	callA := <-backend.calls
	doneB := s.refreshAsync(tracker)
	callB := <-backend.calls

	// the newer query answers first and wins
	callB.reply <- backendReply{status: app.Status{Installed: true, Version: "3.0.1", OriginLabel: "official"}}
	got := <-doneB
	c.Assert(got.err, IsNil)
	c.Check(got.status.Version, Equals, "3.0.1")

	// the older answer straggles in afterwards and changes nothing
	callA.reply <- backendReply{status: app.Status{Installed: true, Version: "2.99.0", OriginLabel: "community-bin"}}
	got = <-doneA
	c.Assert(got.err, IsNil)
	c.Assert(got.status, NotNil)
	c.Check(got.status.Version, Equals, "3.0.1")

	c.Check(tracker.Current().Version, Equals, "3.0.1")
	c.Check(tracker.Current().OriginLabel, Equals, "official")
}

func (s *trackerSuite) TestSupersededAnswerIsDiscardedEvenWhenFirst(c *C) {
	backend := newGatedBackend()
	tracker := track.NewTracker(s.id, backend, nil, nil)

	doneA := s.refreshAsync(tracker)
	callA := <-backend.calls
	doneB := s.refreshAsync(tracker)
	callB := <-backend.calls

	// the superseded query answers before the newer one does; it is
	// dropped all the same
	callA.reply <- backendReply{status: app.Status{Installed: true, Version: "2.99.0"}}
	got := <-doneA
	c.Assert(got.err, IsNil)
	c.Check(got.status, IsNil)
	c.Check(tracker.Current(), IsNil)

	callB.reply <- backendReply{status: app.Status{Installed: true, Version: "3.0.1"}}
	got = <-doneB
	c.Assert(got.err, IsNil)
	c.Check(got.status.Version, Equals, "3.0.1")
}

func (s *trackerSuite) TestMemoSeedsDiskName(c *C) {
	memo := &memoStore{names: map[string]string{"gimp": "org.gimp.GIMP"}}
	backend := &recordingBackend{}
	tracker := track.NewTracker(s.id, backend, memo, nil)

	c.Check(tracker.DiskName(), Equals, "org.gimp.GIMP")

	_, err := tracker.Refresh(context.Background(), "gimp-flatpak")
	c.Assert(err, IsNil)
	c.Check(backend.queried(), DeepEquals, []string{"org.gimp.GIMP"})
}

func (s *trackerSuite) TestLearnedDiskNameIsRemembered(c *C) {
	memo := &memoStore{}
	backend := &recordingBackend{replies: []backendReply{
		{status: app.Status{Installed: true, Version: "3.0.1", DiskName: "org.gimp.GIMP"}},
	}}
	tracker := track.NewTracker(s.id, backend, memo, nil)

	_, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, IsNil)
	c.Check(tracker.DiskName(), Equals, "org.gimp.GIMP")
	c.Check(memo.sets, DeepEquals, [][2]string{{"gimp", "org.gimp.GIMP"}})
}

func (s *trackerSuite) TestMemoFailureDoesNotRejectStatus(c *C) {
	buf, restore := logger.MockLogger()
	defer restore()

	memo := &memoStore{setErr: errors.New("disk full")}
	backend := &recordingBackend{replies: []backendReply{
		{status: app.Status{Installed: true, Version: "3.0.1", DiskName: "org.gimp.GIMP"}},
	}}
	tracker := track.NewTracker(s.id, backend, memo, nil)

	st, err := tracker.Refresh(context.Background(), "")
	c.Assert(err, IsNil)
	c.Check(st.Version, Equals, "3.0.1")
	c.Check(tracker.DiskName(), Equals, "org.gimp.GIMP")
	c.Check(buf.String(), Matches, `(?s).*cannot remember on-disk name of "gimp": disk full.*`)
}
