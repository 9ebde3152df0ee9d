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

// Package fsindex is the reference objpack.FingerprintIndex the CLI
// tools in cmd/ use. spec.md deliberately keeps the fingerprint-to-offset
// index out of the core decoder's scope (§1); this package is one
// concrete way to supply it, not part of the format itself.
//
// It expects a sidecar ".idx" file alongside the container: numObjects
// consecutive big-endian int64 offsets, row i giving the byte offset of
// the object whose fingerprint is at row i of the container's own
// fingerprint table. Building that sidecar is an ingestion-time concern,
// not a decode-time one, and is out of scope here too.
package fsindex

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sneller-labs/objpack/internal/fpcache"
)

// Index implements objpack.FingerprintIndex over a sidecar offsets file
// and the container's own fingerprint table.
type Index struct {
	fingerprints []byte // container.FingerprintTable, 20 bytes/row
	offsets      []int64
	cache        *fpcache.Cache
}

// Load reads numObjects offsets from path and pairs them positionally
// with fingerprintTable (as returned by objpack.Container.FingerprintTable).
func Load(path string, numObjects int, fingerprintTable []byte) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fsindex: reading %s: %w", path, err)
	}
	if len(raw) != numObjects*8 {
		return nil, fmt.Errorf("fsindex: %s is %d bytes, want %d for %d objects", path, len(raw), numObjects*8, numObjects)
	}
	offsets := make([]int64, numObjects)
	for i := range offsets {
		offsets[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return &Index{
		fingerprints: fingerprintTable,
		offsets:      offsets,
		cache:        fpcache.New(0, 0),
	}, nil
}

// NthObjectOffset returns the offset stored at row n.
func (x *Index) NthObjectOffset(n int) (int64, error) {
	if n < 0 || n >= len(x.offsets) {
		return 0, fmt.Errorf("fsindex: row %d out of range [0,%d)", n, len(x.offsets))
	}
	return x.offsets[n], nil
}

// OffsetByFingerprint linearly scans the fingerprint table for fp. Real
// deployments would maintain a sorted or hashed on-disk index instead;
// this reference implementation favors simplicity over lookup speed and
// relies on fpcache to keep repeated CLI queries cheap.
func (x *Index) OffsetByFingerprint(fp [20]byte) (int64, error) {
	if off, ok := x.cache.Lookup(fp); ok {
		return off, nil
	}
	for i := 0; i*20 < len(x.fingerprints); i++ {
		if string(x.fingerprints[i*20:i*20+20]) == string(fp[:]) {
			off, err := x.NthObjectOffset(i)
			if err != nil {
				return 0, err
			}
			x.cache.Store(fp, off)
			return off, nil
		}
	}
	return 0, fmt.Errorf("fsindex: no object with fingerprint %s", hex.EncodeToString(fp[:]))
}

// Hex renders fp as the 40-character lowercase hex string used in
// canonical commit text.
func (x *Index) Hex(fp [20]byte) string {
	return hex.EncodeToString(fp[:])
}
