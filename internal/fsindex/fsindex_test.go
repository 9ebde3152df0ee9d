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

package fsindex

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeIdx(t *testing.T, offsets []int64) string {
	t.Helper()
	buf := make([]byte, len(offsets)*8)
	for i, off := range offsets {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(off))
	}
	path := filepath.Join(t.TempDir(), "container.objpack.idx")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	var fp0, fp1 [20]byte
	fp0[0], fp1[0] = 0xAA, 0xBB
	table := append(append([]byte{}, fp0[:]...), fp1[:]...)

	path := writeIdx(t, []int64{100, 200})
	idx, err := Load(path, 2, table)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if off, err := idx.NthObjectOffset(1); err != nil || off != 200 {
		t.Fatalf("NthObjectOffset(1): got (%d, %v), want (200, nil)", off, err)
	}
	if off, err := idx.OffsetByFingerprint(fp0); err != nil || off != 100 {
		t.Fatalf("OffsetByFingerprint(fp0): got (%d, %v), want (100, nil)", off, err)
	}
	if _, err := idx.NthObjectOffset(5); err == nil {
		t.Fatalf("NthObjectOffset(5): want an out-of-range error")
	}
	var unknown [20]byte
	unknown[0] = 0xFF
	if _, err := idx.OffsetByFingerprint(unknown); err == nil {
		t.Fatalf("OffsetByFingerprint(unknown): want an error")
	}
	if got := idx.Hex(fp0); got != "aa00000000000000000000000000000000000000" {
		t.Fatalf("Hex(fp0): got %q", got)
	}
}

func TestLoadSizeMismatch(t *testing.T) {
	path := writeIdx(t, []int64{1})
	if _, err := Load(path, 2, make([]byte, 40)); err == nil {
		t.Fatalf("Load with mismatched offsets file size: want an error")
	}
}
