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

// Package zlibcap implements objpack.Inflater over klauspost/compress's
// zlib decoder, the pack's standing choice for DEFLATE-family codecs (see
// the teacher's compr package, which routes every other compression
// format through klauspost/compress rather than the standard library).
package zlibcap

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

// Inflater is an objpack.Inflater backed by klauspost/compress/zlib. The
// zero value is ready to use.
type Inflater struct{}

// NewReader opens a zlib decompression stream over r. For byte-exact
// accounting of how much of r the stream actually consumed, r should
// implement io.ByteReader; objpack's own window readers always do.
func (Inflater) NewReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}
