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

// Package fpcache memoizes fingerprint-to-offset lookups the CLI
// inspector has already paid for, so repeated queries against the same
// container don't re-walk its index. It caches offsets a
// objpack.FingerprintIndex has already resolved, never decoded object
// bytes - decoded-object caching remains out of scope (spec.md §1).
package fpcache

import (
	"sync"

	"github.com/dchest/siphash"
)

// Cache memoizes OffsetByFingerprint results, keyed by a siphash of the
// raw 20-byte fingerprint the way the teacher's vm and plan packages key
// their own lookup caches with dchest/siphash.
type Cache struct {
	k0, k1 uint64

	mu    sync.Mutex
	byKey map[uint64]int64
}

// New returns an empty Cache. k0/k1 are the siphash keys; passing 0, 0 is
// fine for a process-local cache with no adversarial key-collision
// concerns.
func New(k0, k1 uint64) *Cache {
	return &Cache{k0: k0, k1: k1, byKey: make(map[uint64]int64)}
}

func (c *Cache) key(fp [20]byte) uint64 {
	return siphash.Hash(c.k0, c.k1, fp[:])
}

// Lookup returns a previously stored offset for fp, if any.
func (c *Cache) Lookup(fp [20]byte) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	off, ok := c.byKey[c.key(fp)]
	return off, ok
}

// Store records offset as the resolved location of fp.
func (c *Cache) Store(fp [20]byte, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[c.key(fp)] = offset
}
