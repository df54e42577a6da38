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

package osutil_test

import (
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/appshelf/appshelf/osutil"
)

type statSuite struct{}

var _ = Suite(&statSuite{})

func (s *statSuite) TestFileExists(c *C) {
	c.Check(osutil.FileExists("/i-do-not-exist"), Equals, false)

	fname := filepath.Join(c.MkDir(), "foo")
	err := os.WriteFile(fname, []byte(""), 0644)
	c.Assert(err, IsNil)
	c.Check(osutil.FileExists(fname), Equals, true)
}

func (s *statSuite) TestIsDirectory(c *C) {
	c.Check(osutil.IsDirectory("/i-do-not-exist"), Equals, false)

	dname := c.MkDir()
	c.Check(osutil.IsDirectory(dname), Equals, true)

	fname := filepath.Join(dname, "foo")
	err := os.WriteFile(fname, []byte(""), 0644)
	c.Assert(err, IsNil)
	c.Check(osutil.IsDirectory(fname), Equals, false)
}
