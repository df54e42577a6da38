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

package httputil_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "gopkg.in/check.v1"
	"gopkg.in/retry.v1"

	"github.com/appshelf/appshelf/httputil"
)

type retrySuite struct{}

var _ = Suite(&retrySuite{})

var testRetryStrategy = retry.LimitCount(5, retry.LimitTime(1*time.Second,
	retry.Exponential{
		Initial: 1 * time.Millisecond,
		Factor:  1,
	},
))

// jsonReader is the readResponseBody half of the retry loop the way
// the catalog client drives it.
type jsonReader struct {
	gotFailure bool
	decoded    interface{}
}

func (jr *jsonReader) read(resp *http.Response) error {
	jr.gotFailure = false
	jr.decoded = nil
	if resp.StatusCode != 200 {
		jr.gotFailure = true
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(&jr.decoded)
}

func (s *retrySuite) TestRetryRequestOnEOF(c *C) {
	n := 0
	var mockServer *httptest.Server
	mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n < 4 {
			io.WriteString(w, "{")
			mockServer.CloseClientConnections()
			return
		}
		io.WriteString(w, `{"ok": true}`)
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	jr := &jsonReader{}
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)

	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, DeepEquals, map[string]interface{}{"ok": true})
	c.Check(n, Equals, 4)
}

func (s *retrySuite) TestRetryRequestEOFExhaustsRetries(c *C) {
	n := 0
	var mockServer *httptest.Server
	mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		io.WriteString(w, "{")
		mockServer.CloseClientConnections()
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	jr := &jsonReader{}
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, NotNil)
	c.Check(err, ErrorMatches, `^Get "http://127\.0\.0\.1:.*?": EOF$`)

	c.Check(jr.gotFailure, Equals, false)
	c.Check(n, Equals, 5)
}

func (s *retrySuite) TestRetryRequestOn500(c *C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n < 4 {
			w.WriteHeader(500)
			return
		}
		io.WriteString(w, `{"ok": true}`)
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	jr := &jsonReader{}
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)

	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, DeepEquals, map[string]interface{}{"ok": true})
	c.Check(n, Equals, 4)
}

func (s *retrySuite) TestRetryRequestPersistent500(c *C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		w.WriteHeader(500)
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	// the last 5xx response is handed back without an error; what a
	// bad status means is the caller's call
	jr := &jsonReader{}
	resp, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)
	c.Check(resp.StatusCode, Equals, 500)
	c.Check(jr.gotFailure, Equals, true)
	c.Check(n, Equals, 5)
}

func (s *retrySuite) TestRetryRequestUnexpectedEOFHandling(c *C) {
	permanentlyBrokenSrvCalls := 0
	somewhatBrokenSrvCalls := 0

	// lies about the content length and sends nothing
	mockPermanentlyBrokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		permanentlyBrokenSrvCalls++
		w.Header().Add("Content-Length", "1000")
	}))
	defer mockPermanentlyBrokenServer.Close()

	mockSomewhatBrokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		somewhatBrokenSrvCalls++
		if somewhatBrokenSrvCalls > 3 {
			io.WriteString(w, `{"ok": true}`)
			return
		}
		w.Header().Add("Content-Length", "1000")
	}))
	defer mockSomewhatBrokenServer.Close()

	cli := httputil.NewHTTPClient(nil)
	url := ""
	doRequest := func() (*http.Response, error) {
		return cli.Get(url)
	}

	jr := &jsonReader{}

	url = mockPermanentlyBrokenServer.URL
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, Equals, io.ErrUnexpectedEOF)
	c.Check(permanentlyBrokenSrvCalls, Equals, 5)
	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, IsNil)

	url = mockSomewhatBrokenServer.URL
	_, err = httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)
	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, DeepEquals, map[string]interface{}{"ok": true})
	c.Check(somewhatBrokenSrvCalls, Equals, 4)
}

func (s *retrySuite) TestRetryRequestBadBodyIsNotRetried(c *C) {
	n := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		io.WriteString(w, "<bad>")
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	jr := &jsonReader{}
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, ErrorMatches, `invalid character '<' looking for beginning of value`)
	c.Check(jr.gotFailure, Equals, false)
	c.Check(n, Equals, 1)
}

func (s *retrySuite) TestRetryRequestNon200IsHandedToReader(c *C) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		io.WriteString(w, `{"error": true}`)
	}))
	defer mockServer.Close()

	cli := httputil.NewHTTPClient(nil)
	doRequest := func() (*http.Response, error) {
		return cli.Get(mockServer.URL)
	}

	jr := &jsonReader{}
	resp, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)
	c.Check(jr.gotFailure, Equals, true)
	c.Check(resp.StatusCode, Equals, 404)
}

func (s *retrySuite) TestRetryRequestTimeoutHandling(c *C) {
	permanentlyBrokenSrvCalls := 0
	somewhatBrokenSrvCalls := 0

	finished := make(chan struct{})

	mockPermanentlyBrokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		permanentlyBrokenSrvCalls++
		<-finished
	}))
	defer mockPermanentlyBrokenServer.Close()

	mockSomewhatBrokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		somewhatBrokenSrvCalls++
		if somewhatBrokenSrvCalls > 2 {
			io.WriteString(w, `{"ok": true}`)
			return
		}
		<-finished
	}))
	defer mockSomewhatBrokenServer.Close()

	defer close(finished)

	cli := httputil.NewHTTPClient(&httputil.ClientOptions{
		Timeout: 50 * time.Millisecond,
	})

	url := ""
	doRequest := func() (*http.Response, error) {
		return cli.Get(url)
	}

	jr := &jsonReader{}

	url = mockPermanentlyBrokenServer.URL
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, NotNil)
	c.Check(err, ErrorMatches, `.*Client.Timeout.*`)
	c.Check(permanentlyBrokenSrvCalls, Equals, 5)
	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, IsNil)

	url = mockSomewhatBrokenServer.URL
	_, err = httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, IsNil)
	c.Check(jr.gotFailure, Equals, false)
	c.Check(jr.decoded, DeepEquals, map[string]interface{}{"ok": true})
	c.Check(somewhatBrokenSrvCalls, Equals, 3)
}

func (s *retrySuite) TestRetryRequestDNSFailureIsNotRetried(c *C) {
	cli := httputil.NewHTTPClient(nil)

	n := 0
	doRequest := func() (*http.Response, error) {
		n++
		return cli.Get("http://nonexistingserver909123.com/")
	}

	jr := &jsonReader{}
	_, err := httputil.RetryRequest("catalog", doRequest, jr.read, testRetryStrategy)
	c.Assert(err, NotNil)
	c.Check(n, Equals, 1)
}
