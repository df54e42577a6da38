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

package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	systemd "github.com/coreos/go-systemd/daemon"
	"github.com/mvo5/goconfigparser"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/cache"
	"github.com/appshelf/appshelf/catalog"
	"github.com/appshelf/appshelf/daemon"
	"github.com/appshelf/appshelf/dbusutil"
	"github.com/appshelf/appshelf/dirs"
	"github.com/appshelf/appshelf/httputil"
	"github.com/appshelf/appshelf/installer"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/origin"
	"github.com/appshelf/appshelf/osutil"
	"github.com/appshelf/appshelf/track"
	"github.com/appshelf/appshelf/version"
)

func init() {
	err := logger.SimpleSetup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: failed to activate logging: %s\n", err)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// memoTTL is how long a memoized display version stays fresh.
const memoTTL = time.Hour

type config struct {
	socket     string
	catalogURL *url.URL
	authFile   string
	cachePath  string
}

// readConfig loads the daemon configuration, falling back to the dirs
// defaults for anything unset. A missing file is not an error.
func readConfig(path string) (*config, error) {
	conf := &config{
		socket:    dirs.DaemonSocket,
		authFile:  dirs.CatalogAuthFile,
		cachePath: dirs.MemoDB,
	}
	if !osutil.FileExists(path) {
		return conf, nil
	}

	cfg := goconfigparser.New()
	if err := cfg.ReadFile(path); err != nil {
		return nil, fmt.Errorf("cannot read configuration %q: %v", path, err)
	}
	if socket, err := cfg.Get("daemon", "socket"); err == nil && socket != "" {
		conf.socket = socket
	}
	if rawURL, err := cfg.Get("catalog", "url"); err == nil && rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("cannot parse catalog url %q: %v", rawURL, err)
		}
		conf.catalogURL = u
	}
	if authFile, err := cfg.Get("catalog", "store-auth"); err == nil && authFile != "" {
		conf.authFile = authFile
	}
	if cachePath, err := cfg.Get("cache", "path"); err == nil && cachePath != "" {
		conf.cachePath = cachePath
	}
	return conf, nil
}

func runWatchdog(d *daemon.Daemon) (*time.Ticker, error) {
	// not running under systemd
	if os.Getenv("WATCHDOG_USEC") == "" {
		return nil, nil
	}
	usec := osutil.GetenvInt64("WATCHDOG_USEC")
	if usec == 0 {
		return nil, fmt.Errorf("cannot parse WATCHDOG_USEC: %q", os.Getenv("WATCHDOG_USEC"))
	}
	dur := time.Duration(usec/2) * time.Microsecond
	logger.Debugf("setting up sd_notify() watchdog timer every %s", dur)
	wt := time.NewTicker(dur)

	go func() {
		for {
			select {
			case <-wt.C:
				systemd.SdNotify(false, "WATCHDOG=1")
			case <-d.Dying():
				return
			}
		}
	}()

	return wt, nil
}

func run() error {
	t0 := time.Now().Truncate(time.Millisecond)
	httputil.SetUserAgentFromVersion(version.Version)

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	conf, err := readConfig(dirs.ConfFile)
	if err != nil {
		return err
	}
	// Init listens on dirs.DaemonSocket; a configured socket replaces it.
	dirs.DaemonSocket = conf.socket

	origins, err := origin.LoadTableOrDefault(dirs.OriginsFile)
	if err != nil {
		return err
	}
	alts, err := app.ReadAlternatives(dirs.AlternativesFile)
	if err != nil {
		return err
	}

	variants, err := catalog.New(&catalog.Config{
		BaseURL:  conf.catalogURL,
		AuthFile: conf.authFile,
	})
	if err != nil {
		return err
	}

	conn, err := dbusutil.SystemBus()
	if err != nil {
		return fmt.Errorf("cannot connect to the system bus: %v", err)
	}

	journal := track.NewJournal()
	hub := track.NewHub(journal)

	backend := installer.New(conn, hub)
	if err := backend.WatchOperations(); err != nil {
		return fmt.Errorf("cannot watch installer operations: %v", err)
	}
	defer backend.Stop()

	d, err := daemon.New(&daemon.Options{
		Version:      version.Version,
		Origins:      origins,
		Alternatives: alts,
		Catalog:      variants,
		Backend:      backend,
		Memo:         cache.New(conf.cachePath, memoTTL),
		Hub:          hub,
		Journal:      journal,
	})
	if err != nil {
		return err
	}
	if err := d.Init(); err != nil {
		return err
	}
	d.Start()

	watchdog, err := runWatchdog(d)
	if err != nil {
		return fmt.Errorf("cannot run software watchdog: %v", err)
	}
	if watchdog != nil {
		defer watchdog.Stop()
	}

	systemd.SdNotify(false, "READY=1")
	logger.Debugf("activation done in %v", time.Now().Truncate(time.Millisecond).Sub(t0))

	select {
	case sig := <-ch:
		logger.Noticef("Exiting on %s signal.\n", sig)
	case <-d.Dying():
		// something called Stop()
	}

	systemd.SdNotify(false, "STOPPING=1")
	return d.Stop()
}
