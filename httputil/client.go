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

// Package httputil provides the shared HTTP plumbing used when talking
// to the variant catalog: a client constructor with debug logging,
// redirect handling and retry helpers.
package httputil

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

type ClientOptions struct {
	Timeout    time.Duration
	TLSConfig  *tls.Config
	Proxy      func(*http.Request) (*url.URL, error)
	MayLogBody bool
}

// NewHTTPClient returns a new http.Client with a LoggedTransport, a
// Timeout and preservation of range requests across redirects.
func NewHTTPClient(opts *ClientOptions) *http.Client {
	if opts == nil {
		opts = &ClientOptions{}
	}

	transport := newDefaultTransport()
	transport.TLSClientConfig = opts.TLSConfig
	if opts.Proxy != nil {
		transport.Proxy = opts.Proxy
	}

	return &http.Client{
		Transport: &LoggedTransport{
			Transport: transport,
			Key:       "APPSHELF_DEBUG_HTTP",
			body:      opts.MayLogBody,
		},
		Timeout:       opts.Timeout,
		CheckRedirect: checkRedirect,
	}
}

func newDefaultTransport() *http.Transport {
	// same as http.DefaultTransport, but not shared with the rest of
	// the process and with http/2 left off
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// BaseTransport returns the underlying http.Transport of a client
// created with NewHTTPClient. It panics if that's not the case. For
// tests.
func BaseTransport(cli *http.Client) *http.Transport {
	tr, ok := cli.Transport.(*LoggedTransport)
	if !ok {
		panic("client must have been created with httputil.NewHTTPClient")
	}
	return tr.Transport.(*http.Transport)
}
