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

// Package cache persists the little the daemon wants to remember
// across restarts: the on-disk package names learned from status
// queries and the last display version seen per app. Everything in
// here is rebuildable, so a missing or corrupt cache file degrades to
// empty lookups and is rewritten on the next store.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/osutil"
	"github.com/appshelf/appshelf/randutil"
)

var (
	diskNameBucketKey       = []byte("disk-names")
	displayVersionBucketKey = []byte("display-versions")
)

var timeNow = time.Now

// entry is the stored value in both buckets.
type entry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated-at"`
}

// Cache is a bbolt-backed memo keyed by app name. Display versions
// older than the TTL are treated as absent; learned disk names do not
// expire since steady state never rewrites them.
type Cache struct {
	path string
	ttl  time.Duration

	mu sync.Mutex
}

// New returns a cache backed by the bbolt file at path. The file may
// not exist yet. ttl bounds the age of display versions served from
// the cache; zero means no bound.
func New(path string, ttl time.Duration) *Cache {
	return &Cache{path: path, ttl: ttl}
}

// DiskName returns the remembered on-disk name for the given app.
func (c *Cache) DiskName(name string) (string, bool) {
	e, ok := c.get(diskNameBucketKey, name)
	return e.Value, ok
}

// SetDiskName remembers the on-disk name learned for the given app.
func (c *Cache) SetDiskName(name, diskName string) error {
	return c.put(diskNameBucketKey, name, diskName)
}

// DisplayVersion returns the last stored display version for the
// given app, unless it has gone stale.
func (c *Cache) DisplayVersion(name string) (string, bool) {
	e, ok := c.get(displayVersionBucketKey, name)
	if !ok {
		return "", false
	}
	if c.ttl > 0 && timeNow().Sub(e.UpdatedAt) > c.ttl {
		return "", false
	}
	return e.Value, true
}

// SetDisplayVersion stores the display version last seen for the
// given app.
func (c *Cache) SetDisplayVersion(name, version string) error {
	return c.put(displayVersionBucketKey, name, version)
}

func (c *Cache) get(bucketKey []byte, name string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check for a missing file manually to work around a bolt wart:
	// bolt.Open uses os.O_CREATE even in read-only mode, so without
	// this we would create an empty database just by looking.
	if !osutil.FileExists(c.path) {
		return entry{}, false
	}
	db, err := bolt.Open(c.path, 0644, &bolt.Options{
		ReadOnly: true,
		Timeout:  time.Second,
	})
	if err != nil {
		logger.Noticef("cannot open memo cache %q: %v", c.path, err)
		return entry{}, false
	}
	defer db.Close()

	var e entry
	found := false
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKey)
		if b == nil {
			return nil
		}
		row := b.Get([]byte(name))
		if row == nil {
			return nil
		}
		if err := json.Unmarshal(row, &e); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		logger.Noticef("cannot read memo cache %q: %v", c.path, err)
		return entry{}, false
	}
	return e, found
}

func (c *Cache) put(bucketKey []byte, name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.readAllLocked()
	if err != nil {
		logger.Noticef("cannot read memo cache %q, rebuilding: %v", c.path, err)
		state = newMemoState()
	}
	state.set(bucketKey, name, entry{Value: value, UpdatedAt: timeNow()})
	return c.writeAllLocked(state)
}

type memoState struct {
	buckets map[string]map[string]entry
}

func newMemoState() *memoState {
	return &memoState{buckets: map[string]map[string]entry{
		string(diskNameBucketKey):       {},
		string(displayVersionBucketKey): {},
	}}
}

func (s *memoState) set(bucketKey []byte, name string, e entry) {
	s.buckets[string(bucketKey)][name] = e
}

func (c *Cache) readAllLocked() (*memoState, error) {
	state := newMemoState()
	if !osutil.FileExists(c.path) {
		return state, nil
	}
	db, err := bolt.Open(c.path, 0644, &bolt.Options{
		ReadOnly: true,
		Timeout:  time.Second,
	})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		for bucketName, entries := range state.buckets {
			b := tx.Bucket([]byte(bucketName))
			if b == nil {
				continue
			}
			cur := b.Cursor()
			for k, v := cur.First(); k != nil; k, v = cur.Next() {
				var e entry
				if err := json.Unmarshal(v, &e); err != nil {
					logger.Noticef("skipping bad memo cache row %q: %v", k, err)
					continue
				}
				entries[string(k)] = e
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// writeAllLocked writes the whole state to a fresh database next to
// the target and renames it into place, so readers never observe a
// half-written file.
func (c *Cache) writeAllLocked(state *memoState) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	fn := c.path + "." + randutil.RandomString(12) + "~"
	db, err := bolt.Open(fn, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for bucketName, entries := range state.buckets {
			b, err := tx.CreateBucket([]byte(bucketName))
			if err != nil {
				return err
			}
			for name, e := range entries {
				row, err := json.Marshal(e)
				if err != nil {
					return err
				}
				if err := b.Put([]byte(name), row); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fn)
		return err
	}

	dir, err := os.Open(filepath.Dir(c.path))
	if err != nil {
		os.Remove(fn)
		return err
	}
	defer dir.Close()

	if err := os.Rename(fn, c.path); err != nil {
		os.Remove(fn)
		return err
	}
	return dir.Sync()
}
