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
	"fmt"
	"io"
)

// outbuf is a fixed-capacity output buffer that every emission must fit
// into strictly, per spec.md §4.E's overflow policy.
type outbuf struct {
	buf []byte
	pos int
}

func (o *outbuf) remaining() int { return len(o.buf) - o.pos }

func (o *outbuf) write(s string) error {
	if len(s) > o.remaining() {
		return ErrTruncated
	}
	o.pos += copy(o.buf[o.pos:], s)
	return nil
}

// DecodeCommit reconstructs the canonical textual form of a commit object
// encoded at offset within handle, per spec.md §4.E. On success the
// returned slice has length exactly size; on any error, no partial buffer
// is returned.
func DecodeCommit(handle *Container, offset int64, size int) ([]byte, error) {
	win := newWindow(handle.caps.Pack)
	defer win.release()
	cur := &Cursor{win: win, off: offset}
	out := &outbuf{buf: make([]byte, size)}

	tree, err := ResolveFingerprintRef(handle, cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: tree ref: %w", offset, err)
	}
	if err := out.write("tree " + handle.caps.Index.Hex(tree) + "\n"); err != nil {
		return nil, err
	}

	nbParents, err := decodeVarint(cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: nb_parents: %w", offset, err)
	}
	for i := uint64(0); i < nbParents; i++ {
		parent, err := ResolveFingerprintRef(handle, cur)
		if err != nil {
			return nil, fmt.Errorf("objpack: commit at %d: parent ref %d: %w", offset, i, err)
		}
		if err := out.write("parent " + handle.caps.Index.Hex(parent) + "\n"); err != nil {
			return nil, err
		}
	}

	commitTime, err := decodeVarint(cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: commit_time: %w", offset, err)
	}
	committer, err := ResolveIdentRef(handle, cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: committer ref: %w", offset, err)
	}

	authorTimeEncoded, err := decodeVarint(cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: author_time: %w", offset, err)
	}
	author, err := ResolveIdentRef(handle, cur)
	if err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: author ref: %w", offset, err)
	}

	authorTime := decodeAuthorTime(int64(commitTime), authorTimeEncoded)

	if err := out.write(fmt.Sprintf("author %s %d %+05d\n", author.Display, authorTime, author.Timezone)); err != nil {
		return nil, err
	}
	if err := out.write(fmt.Sprintf("committer %s %d %+05d\n", committer.Display, int64(commitTime), committer.Timezone)); err != nil {
		return nil, err
	}

	if err := inflateExact(handle, cur, out.buf[out.pos:]); err != nil {
		return nil, fmt.Errorf("objpack: commit at %d: message body: %w", offset, err)
	}
	return out.buf, nil
}

// decodeAuthorTime reverses spec.md §4.E's offset-binary time encoding:
// the low bit of encoded selects the sign of the delta from commitTime.
func decodeAuthorTime(commitTime int64, encoded uint64) int64 {
	delta := int64(encoded >> 1)
	if encoded&1 != 0 {
		return commitTime + delta
	}
	return commitTime - delta
}

// inflateExact inflates from cur's current position into dst, requiring
// the stream to fill dst exactly and terminate cleanly at end-of-stream.
func inflateExact(handle *Container, cur *Cursor, dst []byte) error {
	wr := newWindowReader(cur.win, cur.off)
	zr, err := handle.caps.Inflate.NewReader(wr)
	if err != nil {
		return fmt.Errorf("opening inflate stream: %w", err)
	}
	defer zr.Close()
	if _, err := io.ReadFull(zr, dst); err != nil {
		return ErrTruncated
	}
	var probe [1]byte
	if n, err := zr.Read(probe[:]); n != 0 || err != io.EOF {
		return ErrTruncated
	}
	cur.off = wr.offset()
	return nil
}
