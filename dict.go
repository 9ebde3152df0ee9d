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
	"fmt"
	"io"
)

// dictionary is an ordered, indexable collection of byte strings, each
// preceded by a 2-byte prefix (spec.md §3). entries[i] is the offset into
// data at which entry i's prefix begins; entry i's span runs until
// entries[i+1], or the end of data for the last entry.
type dictionary struct {
	data    []byte
	entries []int
}

func (d *dictionary) len() int { return len(d.entries) }

// lookup returns entry i's 2-byte prefix and its NUL-terminated string
// with the terminator stripped.
func (d *dictionary) lookup(i int) (prefix [2]byte, s string, err error) {
	if i < 0 || i >= len(d.entries) {
		return prefix, "", ErrBadIndex
	}
	start := d.entries[i]
	end := len(d.data)
	if i+1 < len(d.entries) {
		end = d.entries[i+1]
	}
	span := d.data[start:end]
	if len(span) < 3 {
		return prefix, "", ErrBadDict
	}
	copy(prefix[:], span[:2])
	return prefix, string(span[2 : len(span)-1]), nil
}

// parseDictionaryEntries walks decompressed dictionary bytes, skipping
// the 2-byte prefix, NUL-terminated string, and terminator of each entry
// in turn, and records each entry's starting offset. It fails unless the
// walk consumes data exactly to its end (spec.md §4.C step 5).
func parseDictionaryEntries(data []byte) ([]int, error) {
	var entries []int
	i := 0
	for i < len(data) {
		start := i
		if i+2 > len(data) {
			return nil, ErrBadDict
		}
		i += 2
		nul := bytes.IndexByte(data[i:], 0)
		if nul < 0 {
			return nil, ErrBadDict
		}
		i += nul + 1
		entries = append(entries, start)
	}
	if i != len(data) {
		return nil, ErrBadDict
	}
	return entries, nil
}

// defaultMaxDictionaryBytes bounds the allocation a hostile dict_size
// varint can trigger before any of it has been validated by inflating.
const defaultMaxDictionaryBytes = 256 << 20

// loadDictionary implements spec.md §4.C: it reads a varint dict_size at
// offset, inflates exactly that many bytes through ct.caps.Inflate, and
// parses the result into a dictionary. It returns the dictionary along
// with the container offset immediately following the compressed blob.
func (ct *Container) loadDictionary(offset int64) (*dictionary, int64, error) {
	win := newWindow(ct.caps.Pack)
	defer win.release()

	cur := &Cursor{win: win, off: offset}
	dictSize, err := decodeVarint(cur)
	if err != nil {
		return nil, 0, fmt.Errorf("objpack: dictionary size at %d: %w", offset, err)
	}
	if dictSize < 3 {
		return nil, 0, ErrBadDictSize
	}
	max := ct.maxDictionaryBytes()
	if dictSize > uint64(max) {
		return nil, 0, fmt.Errorf("objpack: dictionary size %d exceeds limit %d: %w", dictSize, max, ErrBadDictSize)
	}

	wr := newWindowReader(win, cur.off)
	zr, err := ct.caps.Inflate.NewReader(wr)
	if err != nil {
		return nil, 0, fmt.Errorf("objpack: opening dictionary inflate stream at %d: %w", offset, err)
	}
	defer zr.Close()

	data := make([]byte, dictSize)
	if _, err := io.ReadFull(zr, data); err != nil {
		return nil, 0, fmt.Errorf("objpack: inflating dictionary at %d: %w", offset, ErrBadDict)
	}
	var probe [1]byte
	if n, err := zr.Read(probe[:]); n != 0 || err != io.EOF {
		return nil, 0, fmt.Errorf("objpack: dictionary at %d did not terminate cleanly: %w", offset, ErrBadDict)
	}

	entries, err := parseDictionaryEntries(data)
	if err != nil {
		return nil, 0, fmt.Errorf("objpack: dictionary at %d: %w", offset, err)
	}
	return &dictionary{data: data, entries: entries}, wr.offset(), nil
}

func (ct *Container) maxDictionaryBytes() int {
	if ct.opts.MaxDictionaryBytes > 0 {
		return ct.opts.MaxDictionaryBytes
	}
	return defaultMaxDictionaryBytes
}

// identOffset is the offset at which the identity dictionary begins: the
// 12-byte container header followed by the fingerprint table.
func (ct *Container) identOffset() int64 {
	return 12 + int64(ct.NumObjects)*FingerprintSize
}

// ensureIdentDict lazily loads the identity dictionary, per spec.md §4.D.
// Per spec.md §5, the core performs no synchronization of its own: callers
// sharing a Container across goroutines must pre-load both dictionaries
// or otherwise serialize first access themselves.
func (ct *Container) ensureIdentDict() error {
	if ct.identDict != nil {
		return nil
	}
	d, end, err := ct.loadDictionary(ct.identOffset())
	if err != nil {
		return fmt.Errorf("objpack: loading identity dictionary: %w", err)
	}
	ct.identDict = d
	ct.identDictEnd = end
	return nil
}

// ensurePathDict lazily loads the path dictionary, which requires the
// identity dictionary to already be loaded (or loads it first) since its
// own offset is only known once the identity dictionary's extent is.
func (ct *Container) ensurePathDict() error {
	if ct.pathDict != nil {
		return nil
	}
	if err := ct.ensureIdentDict(); err != nil {
		return err
	}
	d, _, err := ct.loadDictionary(ct.identDictEnd)
	if err != nil {
		return fmt.Errorf("objpack: loading path dictionary: %w", err)
	}
	ct.pathDict = d
	return nil
}

// IdentityEntry is one committer/author dictionary entry: a signed
// timezone offset and the display string that follows it.
type IdentityEntry struct {
	Timezone int16
	Display  string
}

// PathEntry is one path dictionary entry: a file mode and a filename.
type PathEntry struct {
	Mode     uint16
	Filename string
}

// ResolveIdentRef implements spec.md §6's resolve_ident_ref: it ensures
// the identity dictionary is loaded, reads a varint index from cur, and
// returns the resolved entry.
func ResolveIdentRef(handle *Container, cur *Cursor) (IdentityEntry, error) {
	if err := handle.ensureIdentDict(); err != nil {
		return IdentityEntry{}, err
	}
	index, err := decodeVarint(cur)
	if err != nil {
		return IdentityEntry{}, err
	}
	prefix, s, err := handle.identDict.lookup(int(index))
	if err != nil {
		return IdentityEntry{}, err
	}
	return IdentityEntry{
		Timezone: int16(uint16(prefix[0])<<8 | uint16(prefix[1])),
		Display:  s,
	}, nil
}

// ResolvePathRef implements spec.md §6's resolve_path_ref: it ensures the
// path dictionary is loaded and returns the entry at pathIndex.
func ResolvePathRef(handle *Container, pathIndex int) (PathEntry, error) {
	if err := handle.ensurePathDict(); err != nil {
		return PathEntry{}, err
	}
	prefix, s, err := handle.pathDict.lookup(pathIndex)
	if err != nil {
		return PathEntry{}, err
	}
	return PathEntry{
		Mode:     uint16(prefix[0])<<8 | uint16(prefix[1]),
		Filename: s,
	}, nil
}
