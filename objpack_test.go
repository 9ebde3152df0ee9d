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

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/sneller-labs/objpack/internal/packwindow"
	"github.com/sneller-labs/objpack/internal/zlibcap"
)

// appendVarint encodes v using the format's offset-binary continuation
// scheme, the inverse of decodeVarint. It exists only to build test
// fixtures; the decoder never needs to encode.
func appendVarint(buf []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	tmp[n] = byte(v & 0x7f)
	n++
	v >>= 7
	for v != 0 {
		v--
		tmp[n] = 0x80 | byte(v&0x7f)
		n++
		v >>= 7
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return append(buf, tmp[:n]...)
}

// appendFingerprintInline appends a literal (never-indexed) fingerprint
// reference: a zero marker byte followed by the 20 raw bytes.
func appendFingerprintInline(buf []byte, fp [FingerprintSize]byte) []byte {
	buf = append(buf, 0)
	return append(buf, fp[:]...)
}

// fpOf derives a deterministic fake 20-byte fingerprint from a seed string,
// for tests that only need distinct, stable fingerprints to compare.
func fpOf(seed string) [FingerprintSize]byte {
	var fp [FingerprintSize]byte
	for i := range fp {
		fp[i] = seed[i%len(seed)] ^ byte(i)
	}
	return fp
}

// deflate zlib-compresses data the way a real container's producer would;
// klauspost/compress/zlib (used by the decoder under test, via
// internal/zlibcap) reads standard zlib streams, so the standard library's
// writer is a faithful fixture generator.
func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// buildDictionaryBlob renders entries (each a 2-byte prefix plus a string)
// into the wire shape loadDictionary expects: a varint uncompressed size
// followed by the zlib-compressed entry stream.
func buildDictionaryBlob(entries [][3]any) []byte {
	var plain []byte
	for _, e := range entries {
		hi, lo, s := e[0].(byte), e[1].(byte), e[2].(string)
		plain = append(plain, hi, lo)
		plain = append(plain, s...)
		plain = append(plain, 0)
	}
	var out []byte
	out = appendVarint(out, uint64(len(plain)))
	out = append(out, deflate(plain)...)
	return out
}

// fakeIndex is an in-memory FingerprintIndex: offsets[i] is the container
// offset of the object whose fingerprint is fps[i].
type fakeIndex struct {
	fps     [][FingerprintSize]byte
	offsets []int64
}

func (x *fakeIndex) NthObjectOffset(n int) (int64, error) {
	if n < 0 || n >= len(x.offsets) {
		return 0, fmt.Errorf("fakeIndex: row %d out of range", n)
	}
	return x.offsets[n], nil
}

func (x *fakeIndex) OffsetByFingerprint(fp [FingerprintSize]byte) (int64, error) {
	for i, have := range x.fps {
		if have == fp {
			return x.offsets[i], nil
		}
	}
	return 0, fmt.Errorf("fakeIndex: no object with fingerprint %x", fp)
}

func (x *fakeIndex) Hex(fp [FingerprintSize]byte) string {
	return fmt.Sprintf("%x", fp[:])
}

// testCapabilities wires data up as the Pack, a real klauspost/compress/zlib
// Inflater, and index as the FingerprintIndex, the combination every
// core-package test decodes against. The Pack serves data followed by
// FingerprintSize zero bytes of trailing padding: decodeRange requires 20
// mapped bytes ahead of every tree directive, and the fixtures otherwise
// end right after their last directive.
func testCapabilities(data []byte, index FingerprintIndex) Capabilities {
	padded := append(append([]byte{}, data...), make([]byte, FingerprintSize)...)
	return Capabilities{
		Pack:    packwindow.ReaderAtWindow{R: bytes.NewReader(padded), Size: int64(len(padded))},
		Inflate: zlibcap.Inflater{},
		Index:   index,
	}
}

func newTestCursor(data []byte) *Cursor {
	pack := packwindow.ReaderAtWindow{R: bytes.NewReader(data), Size: int64(len(data))}
	return &Cursor{win: newWindow(pack), off: 0}
}
