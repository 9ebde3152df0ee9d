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

// decodeVarint reads a self-delimited unsigned integer from c, advancing
// the cursor past the last consumed byte.
//
// Each byte contributes 7 data bits in its low bits; the high bit signals
// that another byte follows. Unlike a plain base-128 varint, continuation
// bytes are offset by one before being shifted in, so that values encoded
// in N bytes never collide with values encodable in fewer bytes:
//
//	v := uint64(b0 & 0x7f)
//	for the last byte read had its high bit set {
//	    v = ((v + 1) << 7) | uint64(bN & 0x7f)
//	}
func decodeVarint(c *Cursor) (uint64, error) {
	b, err := c.readByte()
	if err != nil {
		return 0, ErrTruncated
	}
	v := uint64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = c.readByte()
		if err != nil {
			return 0, ErrTruncated
		}
		v = ((v + 1) << 7) | uint64(b&0x7f)
	}
	return v, nil
}

// skipVarint advances c past one varint without decoding its value,
// using the same continuation-bit rule as decodeVarint.
func skipVarint(c *Cursor) error {
	b, err := c.readByte()
	if err != nil {
		return ErrTruncated
	}
	for b&0x80 != 0 {
		b, err = c.readByte()
		if err != nil {
			return ErrTruncated
		}
	}
	return nil
}
