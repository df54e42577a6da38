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

package main_test

import (
	"fmt"
	"net/http"
	"time"

	. "gopkg.in/check.v1"

	appshelf "github.com/appshelf/appshelf/cmd/appshelf"
)

func asyncAccepted(w http.ResponseWriter, change string) {
	w.WriteHeader(202)
	fmt.Fprintf(w, `{"type":"async","status-code":202,"status":"Accepted","change":"%s"}`, change)
}

func changeDone(w http.ResponseWriter, id, kind string) {
	fmt.Fprintf(w, `{"type":"sync","status-code":200,"status":"OK","result":`+
		`{"id":"%s","kind":"%s","summary":"...","status":"Done","ready":true,"app":"shelfcalc",`+
		`"spawn-time":"2025-08-25T10:00:00Z","ready-time":"2025-08-25T10:00:05Z"}}`, id, kind)
}

func (s *AppshelfSuite) TestInstall(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			c.Check(r.Method, Equals, "POST")
			c.Check(r.URL.Path, Equals, "/v2/apps/shelfcalc")
			c.Check(r.Header.Get("Content-Type"), Equals, "application/json")
			c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{"action": "install"})
			asyncAccepted(w, "42")
		case 1:
			c.Check(r.Method, Equals, "GET")
			c.Check(r.URL.Path, Equals, "/v2/changes/42")
			changeDone(w, "42", "install-app")
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	rest, err := appshelf.Parser().ParseArgs([]string{"install", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Assert(rest, DeepEquals, []string{})
	c.Check(s.Stdout(), Equals, "shelfcalc installed\n")
	c.Check(s.Stderr(), Equals, "")
}

func (s *AppshelfSuite) TestInstallFromOrigin(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{
				"action": "install",
				"origin": "community-src",
			})
			asyncAccepted(w, "42")
		case 1:
			changeDone(w, "42", "install-app")
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"install", "--origin=community-src", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "shelfcalc installed\n")
}

func (s *AppshelfSuite) TestInstallNoWait(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		if n > 0 {
			c.Fatalf("expected to get 1 request, now on %d", n+1)
		}
		asyncAccepted(w, "42")
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"install", "--no-wait", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "42\n")
	c.Check(s.Stderr(), Equals, "")
}

func (s *AppshelfSuite) TestInstallWaitsForChange(c *C) {
	restore := appshelf.MockPollTime(time.Millisecond)
	defer restore()

	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			asyncAccepted(w, "42")
		case 1:
			c.Check(r.URL.Path, Equals, "/v2/changes/42")
			fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":`+
				`{"id":"42","kind":"install-app","summary":"...","status":"Doing","ready":false,"app":"shelfcalc","spawn-time":"2025-08-25T10:00:00Z"}}`)
		case 2:
			changeDone(w, "42", "install-app")
		default:
			c.Fatalf("expected to get 3 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"install", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(n, Equals, 3)
	c.Check(s.Stdout(), Equals, "shelfcalc installed\n")
}

func (s *AppshelfSuite) TestInstallChangeFails(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			asyncAccepted(w, "42")
		case 1:
			fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":`+
				`{"id":"42","kind":"install-app","summary":"...","status":"Error","ready":true,"err":"dependency problem","app":"shelfcalc","spawn-time":"2025-08-25T10:00:00Z","ready-time":"2025-08-25T10:00:05Z"}}`)
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"install", "shelfcalc"})
	c.Assert(err, ErrorMatches, "dependency problem")
	c.Check(s.Stdout(), Equals, "")
}

func (s *AppshelfSuite) TestInstallOperationInFlight(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(409)
		fmt.Fprintln(w, `{"type":"error","status-code":409,"status":"Conflict","result":`+
			`{"message":"app \"shelfcalc\" has \"install\" operation in progress","kind":"operation-in-flight"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"install", "shelfcalc"})
	c.Assert(err, ErrorMatches, `app "shelfcalc" has "install" operation in progress`)
}

func (s *AppshelfSuite) TestRemove(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			c.Check(r.Method, Equals, "POST")
			c.Check(r.URL.Path, Equals, "/v2/apps/shelfcalc")
			c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{"action": "remove"})
			asyncAccepted(w, "13")
		case 1:
			c.Check(r.URL.Path, Equals, "/v2/changes/13")
			changeDone(w, "13", "remove-app")
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"remove", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "shelfcalc removed\n")
}

func (s *AppshelfSuite) TestSwitch(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{
				"action": "switch",
				"origin": "community-bin",
			})
			asyncAccepted(w, "14")
		case 1:
			changeDone(w, "14", "switch-app")
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"switch", "--origin=community-bin", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "shelfcalc switched to community-bin\n")
}

func (s *AppshelfSuite) TestSwitchRequiresOrigin(c *C) {
	_, err := appshelf.Parser().ParseArgs([]string{"switch", "shelfcalc"})
	c.Assert(err, NotNil)
	c.Check(err.Error(), Equals, "the required flag `--origin' was not specified")
}

func (s *AppshelfSuite) TestUpdate(c *C) {
	n := 0
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch n {
		case 0:
			c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{"action": "update"})
			asyncAccepted(w, "15")
		case 1:
			changeDone(w, "15", "update-app")
		default:
			c.Fatalf("expected to get 2 requests, now on %d", n+1)
		}
		n++
	})

	_, err := appshelf.Parser().ParseArgs([]string{"update", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "shelfcalc updated\n")
}

func (s *AppshelfSuite) TestUpdateNothingToDo(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		fmt.Fprintln(w, `{"type":"error","status-code":400,"status":"Bad Request","result":`+
			`{"message":"no update available for app \"shelfcalc\"","kind":"bad-request"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"update", "shelfcalc"})
	c.Assert(err, ErrorMatches, `no update available for app "shelfcalc"`)
}

func (s *AppshelfSuite) TestLaunch(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, Equals, "POST")
		c.Check(r.URL.Path, Equals, "/v2/apps/shelfcalc")
		c.Check(DecodedRequestBody(c, r), DeepEquals, map[string]interface{}{"action": "launch"})
		fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":null}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"launch", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "")
	c.Check(s.Stderr(), Equals, "")
}

func (s *AppshelfSuite) TestLaunchNotInstalled(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		fmt.Fprintln(w, `{"type":"error","status-code":400,"status":"Bad Request","result":`+
			`{"message":"cannot launch app \"shelfcalc\": it is not installed","kind":"bad-request"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"launch", "shelfcalc"})
	c.Assert(err, ErrorMatches, `cannot launch app "shelfcalc": it is not installed`)
}
