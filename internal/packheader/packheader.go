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

// Package packheader reads the 12-byte container header and fingerprint
// table spec.md §6 assumes but leaves to the embedder to parse: a 4-byte
// magic, a 4-byte format version, and a 4-byte object count, all
// big-endian, followed immediately by the fingerprint table.
package packheader

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Magic is the 4-byte marker expected at the start of a container.
var Magic = [4]byte{'P', 'A', 'C', 'K'}

// Header is the parsed fixed-size container header.
type Header struct {
	Version          uint32
	NumObjects       int
	FingerprintTable []byte
}

// Read opens path and reads its 12-byte header plus fingerprint table.
func Read(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw [12]byte
	if _, err := f.ReadAt(raw[:], 0); err != nil {
		return nil, fmt.Errorf("packheader: reading header: %w", err)
	}
	if [4]byte(raw[:4]) != Magic {
		return nil, fmt.Errorf("packheader: bad magic %q", raw[:4])
	}
	version := binary.BigEndian.Uint32(raw[4:8])
	numObjects := int(binary.BigEndian.Uint32(raw[8:12]))

	table := make([]byte, numObjects*20)
	if _, err := f.ReadAt(table, 12); err != nil {
		return nil, fmt.Errorf("packheader: reading fingerprint table: %w", err)
	}
	return &Header{Version: version, NumObjects: numObjects, FingerprintTable: table}, nil
}
