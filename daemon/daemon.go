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
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	sys "syscall"
	"time"

	"github.com/coreos/go-systemd/activation"
	"github.com/gorilla/mux"
	"gopkg.in/tomb.v2"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/dirs"
	"github.com/appshelf/appshelf/httputil"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/track"
)

// A Daemon listens for requests and routes them to the right command
type Daemon struct {
	Version string

	origins *origin.Table
	alts    map[string][]app.Alternative
	catalog VariantSource
	backend Backend
	memo    Memo

	hub     *track.Hub
	journal *track.Journal
	changes *changeSet

	viewsMu sync.Mutex
	views   map[string]*track.View

	listener net.Listener
	tomb     tomb.Tomb
	router   *mux.Router
}

// VariantSource lists the variants some catalog offers for an app.
type VariantSource interface {
	Variants(ctx context.Context, name string) ([]app.Variant, error)
}

// Backend carries out installs, removals and launches, and answers
// queries about what is installed.
type Backend interface {
	track.StatusBackend
	track.Executor
}

// Memo remembers learned disk names and display versions across runs.
type Memo interface {
	track.NameMemo
	DisplayVersion(name string) (string, bool)
	SetDisplayVersion(name, version string) error
}

// Options carries the collaborators a Daemon is built from.
type Options struct {
	Version string
	// Origins is the origin table to resolve against; the default
	// table is used when nil.
	Origins *origin.Table
	// Alternatives declares extra per-app variants, typically loaded
	// from the alternatives file.
	Alternatives map[string][]app.Alternative
	// Catalog lists the remotely available variants of an app.
	Catalog VariantSource
	// Backend performs installs, removals and launches.
	Backend Backend
	// Memo persists learned disk names and display versions.
	Memo Memo
	// Hub distributes completion events; built fresh when nil.
	Hub *track.Hub
	// Journal records app events; built fresh when nil.
	Journal *track.Journal
}

// New Daemon
func New(opts *Options) (*Daemon, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("cannot build a daemon without an installer backend")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("cannot build a daemon without a variant catalog")
	}

	origins := opts.Origins
	if origins == nil {
		origins = origin.DefaultTable()
	}
	journal := opts.Journal
	if journal == nil {
		journal = track.NewJournal()
	}
	hub := opts.Hub
	if hub == nil {
		hub = track.NewHub(journal)
	}

	return &Daemon{
		Version: opts.Version,
		origins: origins,
		alts:    opts.Alternatives,
		catalog: opts.Catalog,
		backend: opts.Backend,
		memo:    opts.Memo,
		hub:     hub,
		journal: journal,
		changes: newChangeSet(),
		views:   make(map[string]*track.View),
	}, nil
}

// A ResponseFunc handles one of the individual verbs for a method
type ResponseFunc func(*Command, *http.Request) Response

// A Command routes a request to an individual per-verb ResponseFunc,
// gated by the access checker the verb requires.
type Command struct {
	Path string

	GET  ResponseFunc
	POST ResponseFunc

	// ReadAccess gates GET, WriteAccess gates POST
	ReadAccess  accessChecker
	WriteAccess accessChecker

	d *Daemon
}

func (c *Command) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ucred, err := ucrednetGet(r.RemoteAddr)
	if err != nil && err != errNoID {
		logger.Noticef("unexpected error when attempting to get peer credentials: %s", err)
		InternalError(err.Error()).ServeHTTP(w, r)
		return
	}

	var rspf ResponseFunc
	var access accessChecker

	switch r.Method {
	case "GET":
		rspf = c.GET
		access = c.ReadAccess
	case "POST":
		rspf = c.POST
		access = c.WriteAccess
	}

	if rspf == nil {
		BadMethod("method %q not allowed", r.Method).ServeHTTP(w, r)
		return
	}

	if rspe := access.CheckAccess(c.d, r, ucred); rspe != nil {
		rspe.ServeHTTP(w, r)
		return
	}

	rspf(c, r).ServeHTTP(w, r)
}

type wrappedWriter struct {
	w http.ResponseWriter
	s int
}

func (w *wrappedWriter) Header() http.Header {
	return w.w.Header()
}

func (w *wrappedWriter) Write(bs []byte) (int, error) {
	return w.w.Write(bs)
}

func (w *wrappedWriter) WriteHeader(s int) {
	w.w.WriteHeader(s)
	w.s = s
}

func logit(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := &wrappedWriter{w: w}
		t0 := time.Now()
		handler.ServeHTTP(ww, r)
		t := time.Now().Sub(t0)
		url := r.URL.String()
		if !strings.Contains(url, "/changes/") {
			logger.Debugf("%s %s %s %s %d", r.RemoteAddr, r.Method, r.URL, t, ww.s)
		}
	})
}

// getListener tries to get a listener for the given socket path from
// the listener map, and if it fails it tries to set it up directly.
func getListener(socketPath string, listenerMap map[string]net.Listener) (net.Listener, error) {
	if listener, ok := listenerMap[socketPath]; ok {
		return listener, nil
	}

	if c, err := net.Dial("unix", socketPath); err == nil {
		c.Close()
		return nil, fmt.Errorf("socket %q already in use", socketPath)
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	address, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	oldmask := sys.Umask(0111)
	listener, err := net.ListenUnix("unix", address)
	sys.Umask(oldmask)
	runtime.UnlockOSThread()
	if err != nil {
		return nil, err
	}

	logger.Debugf("socket %q was not activated; listening", socketPath)

	return listener, nil
}

// Init sets up the Daemon's internal workings.
// Don't call more than once.
func (d *Daemon) Init() error {
	t0 := time.Now()
	listeners, err := activation.Listeners()
	if err != nil {
		return err
	}

	listenerMap := make(map[string]net.Listener, len(listeners))

	for _, listener := range listeners {
		listenerMap[listener.Addr().String()] = listener
	}

	// The daemon socket is required-- without it, die.
	if listener, err := getListener(dirs.DaemonSocket, listenerMap); err == nil {
		d.listener = &ucrednetListener{listener}
	} else {
		return fmt.Errorf("when trying to listen on %s: %v", dirs.DaemonSocket, err)
	}

	d.addRoutes()

	logger.Debugf("init done in %s", time.Now().Sub(t0))
	logger.Noticef("started %v.", httputil.UserAgent())

	return nil
}

func (d *Daemon) addRoutes() {
	d.router = mux.NewRouter()

	for _, c := range api {
		c.d = d
		d.router.Handle(c.Path, c).Name(c.Path)
	}

	d.router.NotFoundHandler = NotFound("not found")
}

// Start the Daemon
func (d *Daemon) Start() {
	d.tomb.Go(func() error {
		// completion watching runs in its own goroutine
		d.tomb.Go(d.watchCompletions)

		if err := http.Serve(d.listener, logit(d.router)); err != nil && d.tomb.Err() == tomb.ErrStillAlive {
			return err
		}

		return nil
	})
}

// Stop shuts down the Daemon
func (d *Daemon) Stop() error {
	d.tomb.Kill(nil)
	d.listener.Close()

	return d.tomb.Wait()
}

// Dying is a tomb-ish thing
func (d *Daemon) Dying() <-chan struct{} {
	return d.tomb.Dying()
}
