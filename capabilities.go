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

import "io"

// Pack maps regions of a container's backing bytes for reading. It is the
// only way the decoder touches container storage; the decoder never opens
// files or manages memory maps itself.
//
// Use returns a pointer to at least one mapped byte at offset and the
// number of contiguous bytes available starting there. Implementations may
// return the whole remainder of the container, or may return less and rely
// on being called again at a later offset as the decoder advances; the
// decoder always re-requests a mapping once it runs out of available bytes.
//
// Release is called when the decoder is done with the most recently
// returned mapping, on every exit path (success and failure alike).
type Pack interface {
	Use(offset int64) (data []byte, err error)
	Release()
}

// Inflater opens a zlib (RFC 1950) decompression stream over r. It
// mirrors the format's native inflate_init/inflate_step/inflate_end
// primitive, but in idiomatic Go: the returned io.ReadCloser is read for
// exactly as many decompressed bytes as the caller expects, and its
// backing reader is expected to satisfy io.ByteReader (which every Pack
// window byte source in this package does) so that no more compressed
// bytes are ever consumed from r than the stream itself requires - this
// is what lets the dictionary loader (spec.md §4.C) learn the exact
// container offset immediately following one compressed blob so the next
// one can be located.
type Inflater interface {
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// FingerprintIndex resolves container-global lookups that the core does
// not itself maintain: mapping a raw 20-byte fingerprint to the byte
// offset of the object it names, mapping a 0-based fingerprint-table row
// number to that same offset (the decoder subtracts one from the format's
// 1-based indices before calling NthObjectOffset), and rendering a fingerprint as the 40-char
// hex string used in canonical commit text. All three are kept together
// because every embedder lookup implementation naturally already has
// whatever hashing/formatting library it used to build the fingerprint
// table in the first place.
type FingerprintIndex interface {
	OffsetByFingerprint(fp [FingerprintSize]byte) (int64, error)
	NthObjectOffset(n int) (int64, error)
	Hex(fp [FingerprintSize]byte) string
}

// Capabilities bundles the collaborators a Container needs in order to
// perform structured decodes. All three are supplied by the embedder; the
// core never constructs or caches them beyond the lifetime of a Container.
type Capabilities struct {
	Pack    Pack
	Inflate Inflater
	Index   FingerprintIndex
}
