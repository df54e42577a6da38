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

package strutil

import (
	"strings"
)

type versionFieldKind int

const (
	versionFieldNumeric versionFieldKind = iota
	versionFieldAlpha
)

type versionField struct {
	kind versionFieldKind
	text string
}

func isVersionDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isVersionAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// versionFields splits a version string into maximal runs of digits
// and runs of letters. Anything else acts as a field separator and
// carries no meaning of its own, so "1.0-1" and "1.0_1" split the
// same way.
func versionFields(s string) []versionField {
	var fields []versionField
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case isVersionDigit(c):
			j := i + 1
			for j < len(s) && isVersionDigit(s[j]) {
				j++
			}
			fields = append(fields, versionField{versionFieldNumeric, s[i:j]})
			i = j
		case isVersionAlpha(c):
			j := i + 1
			for j < len(s) && isVersionAlpha(s[j]) {
				j++
			}
			fields = append(fields, versionField{versionFieldAlpha, s[i:j]})
			i = j
		default:
			i++
		}
	}
	return fields
}

// compareNumeric compares two digit runs numerically without parsing
// them into machine integers, so arbitrarily long runs stay exact.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// VersionCompare compares two distro-style version strings such as
// "1.18.36-2" or "7.2p2". It returns -1, 0 or 1 when a is older than,
// equal to or newer than b.
//
// Both strings are split into fields of digits and fields of letters.
// Fields are then compared pairwise: numeric fields numerically,
// alphabetic fields lexically. When the fields at one position differ
// in kind the numeric field wins, and when one version runs out of
// fields it sorts before the longer one. Strings that yield no fields
// at all fall back to plain lexical ordering, so the comparison is
// total for any input.
func VersionCompare(a, b string) int {
	fieldsA := versionFields(a)
	fieldsB := versionFields(b)
	if len(fieldsA) == 0 || len(fieldsB) == 0 {
		return strings.Compare(a, b)
	}

	for i := 0; i < len(fieldsA) || i < len(fieldsB); i++ {
		switch {
		case i >= len(fieldsA):
			return -1
		case i >= len(fieldsB):
			return 1
		}
		fa, fb := fieldsA[i], fieldsB[i]
		if fa.kind != fb.kind {
			if fa.kind == versionFieldNumeric {
				return 1
			}
			return -1
		}
		var res int
		if fa.kind == versionFieldNumeric {
			res = compareNumeric(fa.text, fb.text)
		} else {
			res = strings.Compare(fa.text, fb.text)
		}
		if res != 0 {
			return res
		}
	}
	return 0
}
