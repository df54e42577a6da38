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

package catalog

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mvo5/goconfigparser"
	"gopkg.in/macaroon.v1"

	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/osutil"
)

// MacaroonSerialize returns the catalog-compatible serialization of
// the given macaroon.
func MacaroonSerialize(m *macaroon.Macaroon) (string, error) {
	marshalled, err := m.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(marshalled), nil
}

// MacaroonDeserialize returns the macaroon carried by a
// catalog-compatible serialization.
func MacaroonDeserialize(serializedMacaroon string) (*macaroon.Macaroon, error) {
	var m macaroon.Macaroon
	decoded, err := base64.RawURLEncoding.DecodeString(serializedMacaroon)
	if err != nil {
		return nil, err
	}
	if err := m.UnmarshalBinary(decoded); err != nil {
		return nil, err
	}
	return &m, nil
}

// creds carries the serialized macaroons authorizing catalog requests.
type creds struct {
	macaroon  string
	discharge string
}

// loadAuth reads catalog credentials from the given INI file, an
// [auth] section with a macaroon option and optionally a discharge
// option. An empty path or a missing file means anonymous access.
func loadAuth(path string) (*creds, error) {
	if path == "" || !osutil.FileExists(path) {
		return nil, nil
	}

	cfg := goconfigparser.New()
	if err := cfg.ReadFile(path); err != nil {
		return nil, fmt.Errorf("cannot read catalog auth file %q: %v", path, err)
	}
	root, err := cfg.Get("auth", "macaroon")
	if err != nil {
		return nil, fmt.Errorf("invalid catalog auth file %q: %v", path, err)
	}
	if _, err := MacaroonDeserialize(root); err != nil {
		return nil, fmt.Errorf("invalid macaroon in catalog auth file %q: %v", path, err)
	}
	// the discharge is optional
	discharge, _ := cfg.Get("auth", "discharge")
	if discharge != "" {
		if _, err := MacaroonDeserialize(discharge); err != nil {
			return nil, fmt.Errorf("invalid discharge macaroon in catalog auth file %q: %v", path, err)
		}
	}

	return &creds{macaroon: root, discharge: discharge}, nil
}

// authenticate adds the catalog's expected Macaroon Authorization
// header to the request.
func authenticate(r *http.Request, cr *creds) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `Macaroon root="%s"`, cr.macaroon)

	if cr.discharge != "" {
		// the root's signature binds the discharge to this request chain
		root, err := MacaroonDeserialize(cr.macaroon)
		if err != nil {
			logger.Debugf("cannot deserialize root macaroon: %v", err)
			return
		}
		discharge, err := MacaroonDeserialize(cr.discharge)
		if err != nil {
			logger.Debugf("cannot deserialize discharge macaroon: %v", err)
			return
		}
		discharge.Bind(root.Signature())

		serializedDischarge, err := MacaroonSerialize(discharge)
		if err != nil {
			logger.Debugf("cannot re-serialize discharge macaroon: %v", err)
			return
		}
		fmt.Fprintf(&buf, `, discharge="%s"`, serializedDischarge)
	}
	r.Header.Set("Authorization", buf.String())
}
