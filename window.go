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

// window is the single mapped view into a container's backing bytes that
// a decode call threads through both its own linear reads and any
// recursive decodeRange calls. There is exactly one window per top-level
// decode call: recursing into another tree remaps the same window rather
// than acquiring a second one, matching the format's single pack-window
// discipline (see DESIGN.md).
type window struct {
	pack Pack
	off  int64
	data []byte
}

func newWindow(pack Pack) *window {
	return &window{pack: pack}
}

// at returns the mapped bytes starting at the logical offset off,
// remapping through pack if the current mapping does not cover at least
// min bytes from off. It returns ErrTruncated if even a fresh mapping
// can't supply min bytes.
func (w *window) at(off int64, min int) ([]byte, error) {
	if off >= w.off {
		if rel := off - w.off; rel < int64(len(w.data)) && len(w.data)-int(rel) >= min {
			return w.data[rel:], nil
		}
	}
	data, err := w.pack.Use(off)
	if err != nil {
		return nil, err
	}
	w.off = off
	w.data = data
	if len(data) < min {
		return data, ErrTruncated
	}
	return data, nil
}

// invalidate forces the next call to at to remap, even if the logical
// offset requested happens to fall within the stale mapping's range.
// Used after a recursive decodeRange call returns, since that recursion
// has repointed the shared window at an unrelated part of the container.
func (w *window) invalidate() {
	w.data = nil
	w.off = 0
}

func (w *window) release() {
	w.pack.Release()
}

// Cursor is a read head over a container's mapped bytes: an absolute byte
// Offset plus the operations the varint/fingerprint/directive decoders
// need. A Cursor is only meaningful alongside the window it was produced
// from; callers obtain one from Container.NewCursor and otherwise treat it
// as an opaque, mutable value threaded through decode calls exactly as
// spec.md's cursor* parameters are.
type Cursor struct {
	win *window
	off int64
}

// Offset reports the Cursor's current absolute byte position.
func (c *Cursor) Offset() int64 { return c.off }

func (c *Cursor) readByte() (byte, error) {
	b, err := c.win.at(c.off, 1)
	if err != nil {
		return 0, err
	}
	out := b[0]
	c.off++
	return out, nil
}

func (c *Cursor) peekByte() (byte, error) {
	b, err := c.win.at(c.off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readN copies out exactly n bytes starting at the cursor and advances it.
func (c *Cursor) readN(n int) ([]byte, error) {
	b, err := c.win.at(c.off, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b[:n])
	c.off += int64(n)
	return out, nil
}

func (c *Cursor) skip(n int) {
	c.off += int64(n)
}

// windowReader adapts a cursor to io.Reader and io.ByteReader so it can be
// handed to an Inflater without it (or the flate decoder underneath)
// buffering ahead past the end of a compressed stream: compress/flate
// uses a source's ReadByte directly, byte at a time, whenever the source
// implements io.ByteReader, instead of wrapping it in its own bufio
// reader. That keeps windowReader's offset after decompression exactly at
// the first byte past the compressed blob, which is what spec.md §4.C's
// "update the offset to reflect every byte actually consumed" requires.
type windowReader struct {
	cur Cursor
}

func newWindowReader(win *window, off int64) *windowReader {
	return &windowReader{cur: Cursor{win: win, off: off}}
}

func (r *windowReader) ReadByte() (byte, error) {
	b, err := r.cur.readByte()
	if err != nil {
		return 0, io.EOF
	}
	return b, nil
}

func (r *windowReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

// offset reports the container offset immediately after the last byte
// read.
func (r *windowReader) offset() int64 { return r.cur.off }
