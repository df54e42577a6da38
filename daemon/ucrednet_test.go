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
	"net"

	. "gopkg.in/check.v1"
)

type ucrednetSuite struct{}

var _ = Suite(&ucrednetSuite{})

func (s *ucrednetSuite) TestGet(c *C) {
	u, err := ucrednetGetImpl("pid=100;uid=42;socket=/run/appshelfd.socket;")
	c.Assert(err, IsNil)
	c.Check(u.Pid, Equals, int32(100))
	c.Check(u.Uid, Equals, uint32(42))
	c.Check(u.Socket, Equals, "/run/appshelfd.socket")
}

func (s *ucrednetSuite) TestGetUidOnly(c *C) {
	u, err := ucrednetGetImpl("pid=100;uid=0;")
	c.Assert(err, IsNil)
	c.Check(u.Pid, Equals, int32(100))
	c.Check(u.Uid, Equals, uint32(0))
	c.Check(u.Socket, Equals, "")
}

func (s *ucrednetSuite) TestGetMissingPid(c *C) {
	u, err := ucrednetGetImpl("uid=42;")
	c.Check(u, IsNil)
	c.Check(err, Equals, errNoID)
}

func (s *ucrednetSuite) TestGetMissingUid(c *C) {
	u, err := ucrednetGetImpl("pid=100;")
	c.Check(u, IsNil)
	c.Check(err, Equals, errNoID)
}

func (s *ucrednetSuite) TestGetEmpty(c *C) {
	u, err := ucrednetGetImpl("")
	c.Check(u, IsNil)
	c.Check(err, Equals, errNoID)
}

func (s *ucrednetSuite) TestGetGarbagePid(c *C) {
	u, err := ucrednetGetImpl("pid=hello;uid=42;")
	c.Check(u, IsNil)
	c.Check(err, Equals, errNoID)
}

func (s *ucrednetSuite) TestGetGarbageUid(c *C) {
	u, err := ucrednetGetImpl("pid=100;uid=-42;")
	c.Check(u, IsNil)
	c.Check(err, Equals, errNoID)
}

func (s *ucrednetSuite) TestString(c *C) {
	u := &ucrednet{Pid: 100, Uid: 42, Socket: "/run/appshelfd.socket"}
	c.Check(u.String(), Equals, "pid=100;uid=42;socket=/run/appshelfd.socket;")

	var nu *ucrednet
	c.Check(nu.String(), Equals, "pid=;uid=;socket=;")
}

func (s *ucrednetSuite) TestAddr(c *C) {
	u := &ucrednet{Pid: 100, Uid: 42, Socket: "/run/appshelfd.socket"}
	var base net.Addr = &net.UnixAddr{Name: "@", Net: "unix"}
	wa := &ucrednetAddr{base, u}
	c.Check(wa.String(), Equals, u.String())
	c.Check(wa.Network(), Equals, "unix")
}
