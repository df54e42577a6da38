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

	. "gopkg.in/check.v1"

	appshelf "github.com/appshelf/appshelf/cmd/appshelf"
)

const resolveSettledJSON = `{"type":"sync","status-code":200,"status":"OK","result":{
 "name":"shelfcalc",
 "variants":[
  {"origin":{"id":"community-bin","label":"Community prebuilt","kind":"binary-repo"},"version":"1.5.0"},
  {"origin":{"id":"official","label":"Official repositories","kind":"binary-repo"},"version":"1.4.2"},
  {"origin":{"id":"community-src","label":"Community source builds","kind":"source-build"},"version":"1.5.0","repo":"extra","disk-name":"shelfcalc-git"}],
 "selected":{"id":"official","label":"Official repositories","kind":"binary-repo"},
 "status":{"installed":true,"version":"1.4.2","origin-label":"official"},
 "evaluation":{"conflict":false,"update-available":false,"candidate-version":"1.4.2"},
 "state":"installed"}}`

func (s *AppshelfSuite) TestResolveTable(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, Equals, "GET")
		c.Check(r.URL.Path, Equals, "/v2/apps/shelfcalc")
		c.Check(r.URL.Query().Encode(), Equals, "")
		fmt.Fprintln(w, resolveSettledJSON)
	})

	rest, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Assert(rest, DeepEquals, []string{})
	c.Check(s.Stdout(), Equals, ""+
		"Origin         Version  Kind          Repo   Notes\n"+
		"community-bin  1.5.0    binary-repo   -      -\n"+
		"official       1.4.2    binary-repo   -      selected,installed\n"+
		"community-src  1.5.0    source-build  extra  -\n")
	c.Check(s.Stderr(), Equals, "")
}

func (s *AppshelfSuite) TestResolveConflict(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":{
 "name":"shelfcalc",
 "variants":[
  {"origin":{"id":"official","label":"Official repositories","kind":"binary-repo"},"version":"1.4.2"},
  {"origin":{"id":"community-src","label":"Community source builds","kind":"source-build"},"version":"1.5.0","repo":"extra"}],
 "selected":{"id":"official","label":"Official repositories","kind":"binary-repo"},
 "status":{"installed":true,"version":"1.5.0","origin-label":"community-src"},
 "evaluation":{"conflict":true,"update-available":false,"candidate-version":"1.4.2"},
 "state":"installed-conflicting"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, ""+
		"Origin         Version  Kind          Repo   Notes\n"+
		"official       1.4.2    binary-repo   -      selected\n"+
		"community-src  1.5.0    source-build  extra  installed\n"+
		"installed from community-src while official is selected, \"appshelf switch\" reconciles\n")
	c.Check(s.Stderr(), Equals, "")
}

func (s *AppshelfSuite) TestResolveUpdateAvailable(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":{
 "name":"shelfcalc",
 "variants":[
  {"origin":{"id":"official","label":"Official repositories","kind":"binary-repo"},"version":"1.5.0"}],
 "selected":{"id":"official","label":"Official repositories","kind":"binary-repo"},
 "status":{"installed":true,"version":"1.4.2","origin-label":"official"},
 "evaluation":{"conflict":false,"update-available":true,"candidate-version":"1.5.0"},
 "state":"installed"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, ""+
		"Origin    Version  Kind         Repo  Notes\n"+
		"official  1.5.0    binary-repo  -     selected,installed\n"+
		"update available: 1.5.0\n")
}

func (s *AppshelfSuite) TestResolveRisky(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":{
 "name":"shelfcalc",
 "variants":[
  {"origin":{"id":"community-bin","label":"Community prebuilt","kind":"binary-repo"},"version":"1.5.0"}],
 "selected":{"id":"community-bin","label":"Community prebuilt","kind":"binary-repo"},
 "evaluation":{"conflict":false,"update-available":false,"candidate-version":"1.5.0","risky":true},
 "state":"uninstalled"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, ""+
		"Origin         Version  Kind         Repo  Notes\n"+
		"community-bin  1.5.0    binary-repo  -     selected,risky\n")
}

func (s *AppshelfSuite) TestResolveNothingOffered(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"sync","status-code":200,"status":"OK","result":{
 "name":"shelfcalc","variants":[],
 "status":{"installed":true,"version":"1.4.2","origin-label":"official"},
 "evaluation":{"conflict":false,"update-available":false},
 "state":"installed"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, IsNil)
	c.Check(s.Stdout(), Equals, "")
	c.Check(s.Stderr(), Equals, "no variants are currently offered\n")
}

func (s *AppshelfSuite) TestResolveForwardsPinAndPreference(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		c.Check(q.Get("origin"), Equals, "community-src")
		c.Check(q.Get("preferred"), Equals, "portable")
		fmt.Fprintln(w, resolveSettledJSON)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "--origin=community-src", "--preferred=portable", "shelfcalc"})
	c.Assert(err, IsNil)
}

func (s *AppshelfSuite) TestResolveUnknownApp(c *C) {
	s.RedirectClientToTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		fmt.Fprintln(w, `{"type":"error","status-code":404,"status":"Not Found","result":{"message":"cannot find app \"shelfcalc\"","kind":"app-not-found"}}`)
	})

	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc"})
	c.Assert(err, ErrorMatches, `cannot resolve view of app "shelfcalc": cannot find app "shelfcalc"`)
	c.Check(s.Stdout(), Equals, "")
}

func (s *AppshelfSuite) TestResolveExtraArgs(c *C) {
	_, err := appshelf.Parser().ParseArgs([]string{"resolve", "shelfcalc", "extra"})
	c.Assert(err, Equals, appshelf.ErrExtraArgs)
}
