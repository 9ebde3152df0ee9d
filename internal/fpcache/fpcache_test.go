// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package fpcache

import "testing"

func TestCacheStoreLookup(t *testing.T) {
	c := New(1, 2)
	var fp [20]byte
	fp[0] = 0xAB

	if _, ok := c.Lookup(fp); ok {
		t.Fatalf("Lookup on empty cache: want miss")
	}

	c.Store(fp, 12345)
	got, ok := c.Lookup(fp)
	if !ok {
		t.Fatalf("Lookup after Store: want hit")
	}
	if got != 12345 {
		t.Fatalf("Lookup after Store: got %d, want 12345", got)
	}
}

func TestCacheDistinguishesFingerprints(t *testing.T) {
	c := New(0, 0)
	var a, b [20]byte
	a[0] = 1
	b[0] = 2

	c.Store(a, 100)
	c.Store(b, 200)

	if got, ok := c.Lookup(a); !ok || got != 100 {
		t.Fatalf("Lookup(a): got (%d, %v), want (100, true)", got, ok)
	}
	if got, ok := c.Lookup(b); !ok || got != 200 {
		t.Fatalf("Lookup(b): got (%d, %v), want (200, true)", got, ok)
	}
}
