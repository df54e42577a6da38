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

package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/retry.v1"

	"github.com/appshelf/appshelf/dirs"
)

func unixDialer(socketPath string) func(string, string) (net.Conn, error) {
	return func(_, _ string) (net.Conn, error) {
		return net.Dial("unix", socketPath)
	}
}

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config allows to customize client behavior.
type Config struct {
	// BaseURL contains the base URL where the appshelf daemon is
	// expected to be. It can be empty for a default behavior of
	// talking over a unix socket.
	BaseURL string

	// Socket is the path to the unix socket to use.
	Socket string

	// UserAgent is the User-Agent header sent to the daemon.
	UserAgent string
}

// A Client knows how to talk to the appshelf daemon.
type Client struct {
	baseURL   url.URL
	doer      doer
	userAgent string
}

// New returns a new instance of Client
func New(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	// By default talk over an unix socket.
	if config.BaseURL == "" {
		socketPath := config.Socket
		if socketPath == "" {
			socketPath = dirs.DaemonSocket
		}
		transport := &http.Transport{Dial: unixDialer(socketPath)}
		return &Client{
			baseURL: url.URL{
				Scheme: "http",
				Host:   "localhost",
			},
			doer:      &http.Client{Transport: transport},
			userAgent: config.UserAgent,
		}
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		panic(fmt.Sprintf("cannot parse server base URL: %q (%v)", config.BaseURL, err))
	}
	return &Client{
		baseURL:   *baseURL,
		doer:      &http.Client{},
		userAgent: config.UserAgent,
	}
}

// ConnectionError represents a connection or communication error.
type ConnectionError struct {
	Err error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("cannot communicate with server: %v", e.Err)
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}

// RequestError represents an error in building the request.
type RequestError struct {
	Err error
}

func (e RequestError) Error() string {
	return fmt.Sprintf("cannot build request: %v", e.Err)
}

// raw performs a request and returns the resulting http.Response and
// error. You usually only need to call this directly if you expect the
// response to not be JSON, otherwise you'd call do() instead.
func (client *Client) raw(method, urlpath string, query url.Values, headers map[string]string, body io.Reader) (*http.Response, error) {
	// fake a url to keep http.Client happy
	u := client.baseURL
	u.Path = path.Join(client.baseURL.Path, urlpath)
	u.RawQuery = query.Encode()
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, RequestError{err}
	}
	if client.userAgent != "" {
		req.Header.Set("User-Agent", client.userAgent)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return client.doer.Do(req)
}

var (
	doRetry   = 250 * time.Millisecond
	doTimeout = 5 * time.Second
)

// MockDoTimings mocks the delay and timeout used by the do retry loop.
func MockDoTimings(retry, timeout time.Duration) (restore func()) {
	oldRetry := doRetry
	oldTimeout := doTimeout
	doRetry = retry
	doTimeout = timeout
	return func() {
		doRetry = oldRetry
		doTimeout = oldTimeout
	}
}

// do performs a request and decodes the resulting json into the given
// value. It's low-level, for testing/experimenting only; you should
// usually use a higher level interface that builds on this.
func (client *Client) do(method, path string, query url.Values, headers map[string]string, body io.Reader, v interface{}) error {
	strategy := retry.LimitTime(doTimeout, retry.Exponential{
		Initial: doRetry,
		Factor:  1.3,
	})

	var rsp *http.Response
	var err error
	// a GET carries no state, retrying one is always safe
	for a := retry.Start(strategy, nil); a.Next(); {
		rsp, err = client.raw(method, path, query, headers, body)
		if err == nil || method != "GET" {
			break
		}
	}
	if err != nil {
		return ConnectionError{err}
	}
	defer rsp.Body.Close()

	if v != nil {
		if err := decodeInto(rsp.Body, v); err != nil {
			return err
		}
	}

	return nil
}

func decodeInto(reader io.Reader, v interface{}) error {
	dec := json.NewDecoder(reader)
	if err := dec.Decode(v); err != nil {
		r := dec.Buffered()
		buf, err1 := io.ReadAll(r)
		if err1 != nil {
			buf = []byte(fmt.Sprintf("error reading buffered response body: %s", err1))
		}
		return fmt.Errorf("cannot decode %q: %s", buf, err)
	}
	return nil
}

// doSync performs a request to the given path using the specified HTTP
// method. It expects a "sync" response from the API and on success
// decodes the JSON response payload into the given value.
func (client *Client) doSync(method, path string, query url.Values, headers map[string]string, body io.Reader, v interface{}) error {
	var rsp response
	if err := client.do(method, path, query, headers, body, &rsp); err != nil {
		return err
	}
	if err := rsp.err(); err != nil {
		return err
	}
	if rsp.Type != "sync" {
		return fmt.Errorf("expected sync response, got %q", rsp.Type)
	}

	if v != nil {
		if err := json.Unmarshal(rsp.Result, v); err != nil {
			return fmt.Errorf("cannot unmarshal: %v", err)
		}
	}

	return nil
}

// doAsync performs a request that is expected to kick off a change; it
// returns the change's id.
func (client *Client) doAsync(method, path string, query url.Values, headers map[string]string, body io.Reader) (changeID string, err error) {
	var rsp response
	if err := client.do(method, path, query, headers, body, &rsp); err != nil {
		return "", err
	}
	if err := rsp.err(); err != nil {
		return "", err
	}
	if rsp.Type != "async" {
		return "", fmt.Errorf("expected async response for %q on %q, got %q", method, path, rsp.Type)
	}
	if rsp.StatusCode != 202 {
		return "", fmt.Errorf("operation not accepted")
	}
	if rsp.Change == "" {
		return "", fmt.Errorf("async response without change reference")
	}

	return rsp.Change, nil
}

// A response produced by the REST API will usually fit in this.
type response struct {
	Result     json.RawMessage `json:"result"`
	Type       string          `json:"type"`
	Change     string          `json:"change"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status-code"`
}

// err extracts the error in case of an "error" type response.
func (rsp *response) err() error {
	if rsp.Type != "error" {
		return nil
	}
	var resultErr Error
	err := json.Unmarshal(rsp.Result, &resultErr)
	if err != nil || resultErr.Message == "" {
		return fmt.Errorf("server error: %q", rsp.Status)
	}
	resultErr.StatusCode = rsp.StatusCode

	return &resultErr
}

// HostInfo describes the distribution the daemon runs on.
type HostInfo struct {
	ID        string `json:"id"`
	VersionID string `json:"version-id,omitempty"`
	Family    string `json:"family"`
	Variant   string `json:"variant,omitempty"`
}

// SysInfo holds daemon and host information.
type SysInfo struct {
	Version string   `json:"version"`
	Host    HostInfo `json:"host"`
	// Origins lists the known source ids in priority order.
	Origins []string `json:"origins"`
}

// SysInfo gets system information from the daemon.
func (client *Client) SysInfo() (*SysInfo, error) {
	var sysInfo SysInfo

	if err := client.doSync("GET", "/v2/system-info", nil, nil, nil, &sysInfo); err != nil {
		return nil, xerrors.Errorf("cannot obtain system details: %w", err)
	}

	return &sysInfo, nil
}
