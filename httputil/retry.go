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

package httputil

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"gopkg.in/retry.v1"

	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/osutil"
)

// isHttpRetryError returns true for transport hiccups that a fresh
// attempt has a chance of getting past: timeouts, connections cut
// short, connections reset. Anything else (DNS failures included) is
// handed back to the caller as is.
func isHttpRetryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "read" {
		return true
	}
	return false
}

// ShouldRetryError returns true if the given attempt has more tries
// left and the error is worth trying again for.
func ShouldRetryError(attempt *retry.Attempt, err error) bool {
	if !attempt.More() {
		return false
	}
	return isHttpRetryError(err)
}

// ShouldRetryHttpResponse returns true if the given attempt has more
// tries left and the response speaks of a server-side problem.
func ShouldRetryHttpResponse(attempt *retry.Attempt, resp *http.Response) bool {
	if !attempt.More() {
		return false
	}
	return resp.StatusCode >= 500
}

// MaybeLogRetryAttempt logs about the retry attempt when it is not the
// first one or debugging is on.
func MaybeLogRetryAttempt(endpoint string, attempt *retry.Attempt, startTime time.Time) {
	if osutil.GetenvBool("APPSHELF_DEBUG") || attempt.Count() > 1 {
		logger.Debugf("Retrying %s, attempt %d, elapsed time=%v", endpoint, attempt.Count(), time.Since(startTime))
	}
}

func maybeLogRetrySummary(startTime time.Time, endpoint string, attempt *retry.Attempt, resp *http.Response, err error) {
	if osutil.GetenvBool("APPSHELF_DEBUG") || attempt.Count() > 1 {
		var status string
		if err != nil {
			status = err.Error()
		} else if resp != nil {
			status = resp.Status
		}
		logger.Debugf("The retry loop for %s finished after %d retries, elapsed time=%v, status: %s", endpoint, attempt.Count(), time.Since(startTime), status)
	}
}

// RetryRequest calls doRequest and then readResponseBody until the
// retry strategy gives up, retrying on transient transport errors and
// 5xx responses. The last response is returned even when it is a 5xx;
// deciding what a bad status means is the caller's business, inside
// readResponseBody or after it.
func RetryRequest(endpoint string, doRequest func() (*http.Response, error), readResponseBody func(resp *http.Response) error, retryStrategy retry.Strategy) (resp *http.Response, err error) {
	var attempt *retry.Attempt
	startTime := time.Now()
	for attempt = retry.Start(retryStrategy, nil); attempt.Next(); {
		MaybeLogRetryAttempt(endpoint, attempt, startTime)

		resp, err = doRequest()
		if err != nil {
			if ShouldRetryError(attempt, err) {
				continue
			}
			break
		}

		if ShouldRetryHttpResponse(attempt, resp) {
			resp.Body.Close()
			continue
		}

		readErr := readResponseBody(resp)
		resp.Body.Close()
		if readErr != nil {
			if ShouldRetryError(attempt, readErr) {
				continue
			}
			maybeLogRetrySummary(startTime, endpoint, attempt, resp, readErr)
			return nil, readErr
		}
		break
	}
	maybeLogRetrySummary(startTime, endpoint, attempt, resp, err)

	return resp, err
}
