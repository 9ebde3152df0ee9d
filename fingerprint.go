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

package objpack

// FingerprintSize is the width in bytes of every object fingerprint in a
// container: a 20-byte content hash, matching the fingerprint table's row
// stride.
const FingerprintSize = 20

// ResolveFingerprintRef reads a fingerprint reference from cur and
// advances the cursor past it, per spec.md §4.B. A reference is either the
// literal 20 bytes (when the first byte is zero) or a 1-based varint index
// into handle's fingerprint table.
func ResolveFingerprintRef(handle *Container, cur *Cursor) ([FingerprintSize]byte, error) {
	var fp [FingerprintSize]byte
	first, err := cur.peekByte()
	if err != nil {
		return fp, err
	}
	if first == 0 {
		cur.skip(1)
		raw, err := cur.readN(FingerprintSize)
		if err != nil {
			return fp, ErrTruncated
		}
		copy(fp[:], raw)
		return fp, nil
	}
	index, err := decodeVarint(cur)
	if err != nil {
		return fp, err
	}
	if index == 0 || index-1 >= uint64(handle.NumObjects) {
		return fp, ErrBadIndex
	}
	row := handle.FingerprintTable[(index-1)*FingerprintSize : index*FingerprintSize]
	copy(fp[:], row)
	return fp, nil
}

// skipFingerprintRef advances cur past a fingerprint reference without
// resolving it, used while skipping already-visited literal entries
// during a partial-range tree copy (spec.md §4.F).
func skipFingerprintRef(cur *Cursor) error {
	first, err := cur.peekByte()
	if err != nil {
		return err
	}
	if first == 0 {
		cur.skip(1 + FingerprintSize)
		return nil
	}
	return skipVarint(cur)
}
