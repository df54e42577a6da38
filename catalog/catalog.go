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

// Package catalog talks to the remote variant catalog, the HTTP service
// that knows which origins currently offer an app and at what version.
package catalog

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/juju/ratelimit"
	_ "golang.org/x/crypto/sha3" // expected for digests
	"gopkg.in/retry.v1"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/httputil"
	"github.com/appshelf/appshelf/logger"
)

var variantsRetryStrategy = retry.LimitCount(5, retry.LimitTime(38*time.Second,
	retry.Exponential{
		Initial: 350 * time.Millisecond,
		Factor:  2.5,
	},
))

var ratelimitReader = ratelimit.Reader

var defaultBaseURL = url.URL{Scheme: "https", Host: "catalog.appshelf.io"}

// apiURL returns the catalog base URL, honouring the override used by
// tests and by developers pointing at a local catalog.
func apiURL() *url.URL {
	if s := os.Getenv("APPSHELF_FORCE_CATALOG_URL"); s != "" {
		u, err := url.Parse(s)
		if err == nil {
			return u
		}
		logger.Noticef("cannot use APPSHELF_FORCE_CATALOG_URL %q: %v", s, err)
	}
	u := defaultBaseURL
	return &u
}

// Config represents the catalog endpoint configuration.
type Config struct {
	// BaseURL overrides the default catalog location.
	BaseURL *url.URL
	// AuthFile optionally names an INI file carrying a serialized
	// macaroon used to authorize requests. A missing file means
	// anonymous access.
	AuthFile string
	// RateLimit caps response body reads, in bytes/sec. Zero means
	// no limit.
	RateLimit int64
}

// Client queries the remote variant catalog.
type Client struct {
	baseURL   *url.URL
	client    *http.Client
	creds     *creds
	rateLimit int64
}

// New creates a catalog Client with the given configuration. A nil
// config selects the default endpoint with anonymous access.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == nil {
		baseURL = apiURL()
	}
	creds, err := loadAuth(cfg.AuthFile)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		client: httputil.NewHTTPClient(&httputil.ClientOptions{
			Timeout:    10 * time.Second,
			MayLogBody: true,
		}),
		creds:     creds,
		rateLimit: cfg.RateLimit,
	}, nil
}

func respToError(resp *http.Response, msg string) error {
	tpl := "cannot %s: got unexpected HTTP status code %d via %s to %q"
	return fmt.Errorf(tpl, msg, resp.StatusCode, resp.Request.Method, resp.Request.URL)
}

// HashError signals that the variants payload does not match the
// digest the catalog advertised for it.
type HashError struct {
	name           string
	sha3_384       string
	targetSha3_384 string
}

func (e HashError) Error() string {
	return fmt.Sprintf("sha3-384 mismatch for %q: got %s but expected %s", e.name, e.sha3_384, e.targetSha3_384)
}

// variantsResponse is the wire form of a variants listing. The list is
// kept raw so the digest can be checked against the exact bytes the
// catalog published.
type variantsResponse struct {
	Variants json.RawMessage `json:"variants"`
	Digest   string          `json:"digest"`
}

// Variants fetches the catalog's current view of which origins offer
// the named app. An app the catalog does not know is not an error, the
// result is simply empty; declared origins and listing hints still
// apply to it.
func (c *Client) Variants(ctx context.Context, name string) ([]app.Variant, error) {
	if err := app.ValidateName(name); err != nil {
		return nil, err
	}

	u := c.baseURL.JoinPath("v2", "catalog", "packages", name, "variants")

	var remote variantsResponse
	resp, err := httputil.RetryRequest(u.String(), func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", httputil.UserAgent())
		req.Header.Set("Accept", "application/json")
		if c.creds != nil {
			authenticate(req, c.creds)
		}
		return c.client.Do(req)
	}, func(resp *http.Response) error {
		if resp.StatusCode != 200 {
			// the caller decides what non-200 means
			return nil
		}
		var body io.Reader = resp.Body
		if c.rateLimit > 0 {
			bucket := ratelimit.NewBucketWithRate(float64(c.rateLimit), 2*c.rateLimit)
			body = ratelimitReader(resp.Body, bucket)
		}
		// start from scratch in case a retried read got us here
		remote = variantsResponse{}
		return json.NewDecoder(body).Decode(&remote)
	}, variantsRetryStrategy)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case 200:
		// good
	case 404:
		return nil, nil
	default:
		return nil, respToError(resp, fmt.Sprintf("fetch variants for %q", name))
	}

	if remote.Digest != "" {
		h := crypto.SHA3_384.New()
		h.Write(remote.Variants)
		actualSha3 := fmt.Sprintf("%x", h.Sum(nil))
		if actualSha3 != remote.Digest {
			return nil, HashError{name, actualSha3, remote.Digest}
		}
	}

	if len(remote.Variants) == 0 {
		return nil, nil
	}
	var variants []app.Variant
	if err := json.Unmarshal(remote.Variants, &variants); err != nil {
		return nil, fmt.Errorf("cannot decode variants for %q: %v", name, err)
	}
	return variants, nil
}
