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

import "fmt"

// treeObjectType is the type tag a packed object's header must carry for
// it to be a valid copy-splice source, matching the tree object type
// number used by the wider pack-object family this format descends from.
const treeObjectType = 0x02

// maxObjectHeaderBytes bounds how many continuation-bit bytes
// skipObjectHeader will walk before giving up, guarding against an
// unterminated header run on malformed input.
const maxObjectHeaderBytes = 10

// DecodeTree reconstructs the canonical entry list of a tree object
// encoded at offset within handle, per spec.md §4.F. On success the
// returned slice has length exactly size; on any error, no partial
// buffer is returned.
func DecodeTree(handle *Container, offset int64, size int) ([]byte, error) {
	win := newWindow(handle.caps.Pack)
	defer win.release()

	peek := &Cursor{win: win, off: offset}
	nbEntries, err := decodeVarint(peek)
	if err != nil {
		return nil, fmt.Errorf("objpack: tree at %d: nb_entries: %w", offset, err)
	}

	out := &outbuf{buf: make([]byte, size)}
	if err := decodeRange(handle, win, offset, 0, int(nbEntries), false, 0, out); err != nil {
		return nil, fmt.Errorf("objpack: tree at %d: %w", offset, err)
	}
	if out.remaining() != 0 {
		return nil, fmt.Errorf("objpack: tree at %d: %w", offset, ErrTruncated)
	}
	return out.buf, nil
}

// decodeRange emits exactly count canonical tree entries, logically
// starting at entry index start within the tree encoded at offset, into
// out. It recurses for copy-splice directives that reference another
// tree in the same container (spec.md §4.F).
//
// win is the single pack window shared across this whole call tree: a
// recursive call remaps it to the copy source's offset, and the caller
// must treat its own view of win as invalidated the moment a recursive
// call returns.
//
// lastSrcOffset ("the most recent source offset") lives in this frame
// alone: it is never read from or written back to the caller, and a
// fresh recursive call always starts with its own zero value.
//
// depth counts recursive copy-splices taken to reach this call and is
// checked against handle's Options.MaxCopyDepth to bound pathological or
// cyclic copy chains.
func decodeRange(handle *Container, win *window, offset int64, start, count int, parseHeader bool, depth int, out *outbuf) error {
	if depth > handle.opts.maxCopyDepth() {
		return ErrRecursionLimit
	}

	cur := &Cursor{win: win, off: offset}

	if parseHeader {
		if err := skipObjectHeader(cur); err != nil {
			return err
		}
	}

	nbEntries64, err := decodeVarint(cur)
	if err != nil {
		return fmt.Errorf("nb_entries at %d: %w", offset, err)
	}
	nbEntries := int(nbEntries64)
	if start > nbEntries || count > nbEntries-start {
		return fmt.Errorf("range [%d,+%d) outside %d entries: %w", start, count, nbEntries, ErrBadIndex)
	}

	var lastSrcOffset int64
	for count > 0 {
		// Every forthcoming directive needs at least 20 bytes mapped;
		// if the window doesn't have that much left, force a remap
		// before parsing further (spec.md §4.F).
		if _, err := win.at(cur.off, 20); err != nil {
			return ErrTruncated
		}

		what, err := decodeVarint(cur)
		if err != nil {
			return fmt.Errorf("directive at %d: %w", cur.off, err)
		}

		if what&1 == 0 {
			// Literal entry; path index is what>>1.
			if start > 0 {
				if err := skipFingerprintRef(cur); err != nil {
					return err
				}
				start--
				continue
			}
			pathIndex := int(what >> 1)
			fp, err := ResolveFingerprintRef(handle, cur)
			if err != nil {
				return err
			}
			entry, err := ResolvePathRef(handle, pathIndex)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%o %s\x00", entry.Mode, entry.Filename)
			if len(line)+FingerprintSize > out.remaining() {
				return ErrTruncated
			}
			out.pos += copy(out.buf[out.pos:], line)
			out.pos += copy(out.buf[out.pos:], fp[:])
			count--
			continue
		}

		// Copy directive; source start index is what>>1.
		copyStart := int(what >> 1)
		copyMeta, err := decodeVarint(cur)
		if err != nil {
			return err
		}
		if copyMeta == 0 {
			return ErrBadCopy
		}
		if copyMeta&1 != 0 {
			off, err := decodeCopySourceOffset(handle, cur)
			if err != nil {
				return err
			}
			lastSrcOffset = off
		}
		if lastSrcOffset == 0 {
			return ErrBadCopy
		}
		cc := int(copyMeta >> 1)
		if cc == 0 {
			return ErrBadCopy
		}

		if start >= cc {
			start -= cc
			continue
		}
		emit := cc - start
		if emit > count {
			emit = count
		}
		if err := decodeRange(handle, win, lastSrcOffset, copyStart+start, emit, true, depth+1, out); err != nil {
			return err
		}
		start = 0
		count -= emit
		// The recursive call repointed win at an unrelated region of
		// the container; force the next loop iteration to remap
		// before trusting cur.off against it again.
		win.invalidate()
	}
	return nil
}

// decodeCopySourceOffset reads the optional source-object specifier that
// follows a copy directive's meta varint when its low bit is set, and
// resolves it to a container offset (spec.md §4.F).
func decodeCopySourceOffset(handle *Container, cur *Cursor) (int64, error) {
	s, err := decodeVarint(cur)
	if err != nil {
		return 0, err
	}
	if s == 0 {
		raw, err := cur.readN(FingerprintSize)
		if err != nil {
			return 0, ErrTruncated
		}
		var fp [FingerprintSize]byte
		copy(fp[:], raw)
		off, err := handle.caps.Index.OffsetByFingerprint(fp)
		if err != nil {
			return 0, fmt.Errorf("objpack: resolving copy source fingerprint: %w", err)
		}
		return off, nil
	}
	off, err := handle.caps.Index.NthObjectOffset(int(s - 1))
	if err != nil {
		return 0, fmt.Errorf("objpack: resolving copy source index %d: %w", s, err)
	}
	return off, nil
}

// skipObjectHeader skips a packed object's variable-length header
// (continuation-bit bytes ending in a byte whose low nibble is the
// object's type) and fails unless that type is the tree tag.
func skipObjectHeader(cur *Cursor) error {
	for i := 0; i < maxObjectHeaderBytes; i++ {
		b, err := cur.readByte()
		if err != nil {
			return ErrTruncated
		}
		if b&0x80 == 0 {
			if b&0x0f != treeObjectType {
				return ErrBadType
			}
			return nil
		}
	}
	return ErrTruncated
}
