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

// Package packwindow provides a reference objpack.Pack implementation:
// spec.md keeps the windowing collaborator external to the core decoder,
// so this package is the swappable adapter cmd/objpack-inspect and
// cmd/objpackd use to actually open a container file.
package packwindow

import (
	"fmt"
	"io"
	"os"
)

// Window maps a container file for reading. On Linux it mmaps the whole
// file once (mirroring the teacher's ion/blockfmt/mmap_linux.go and
// cmd/sdb/mmap_linux.go); elsewhere, or if mapping fails, Use reads the
// requested range from the file with ReadAt.
type Window struct {
	f    *os.File
	mem  []byte
	size int64
}

// Open opens path and maps it for reading.
func Open(path string) (*Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &Window{f: f, size: info.Size()}
	if mem, ok := mmap(f, info.Size()); ok {
		w.mem = mem
	}
	return w, nil
}

// Use implements objpack.Pack: it returns the mapped bytes starting at
// offset and available through the end of the container.
func (w *Window) Use(offset int64) ([]byte, error) {
	if offset < 0 || offset > w.size {
		return nil, fmt.Errorf("packwindow: offset %d outside [0,%d]", offset, w.size)
	}
	if w.mem != nil {
		return w.mem[offset:], nil
	}
	buf := make([]byte, w.size-offset)
	if _, err := w.f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// Release is a no-op: Window keeps its whole-file mapping alive for its
// own lifetime rather than unmapping between calls, since every Use
// overlaps the same backing region.
func (w *Window) Release() {}

// Close unmaps (if mapped) and closes the underlying file.
func (w *Window) Close() error {
	if w.mem != nil {
		unmap(w.mem)
		w.mem = nil
	}
	return w.f.Close()
}

// ReaderAtWindow is a portable objpack.Pack over any io.ReaderAt, used on
// platforms without an mmap fast path and in tests against in-memory
// containers.
type ReaderAtWindow struct {
	R    io.ReaderAt
	Size int64
}

func (w ReaderAtWindow) Use(offset int64) ([]byte, error) {
	if offset < 0 || offset > w.Size {
		return nil, fmt.Errorf("packwindow: offset %d outside [0,%d]", offset, w.Size)
	}
	buf := make([]byte, w.Size-offset)
	if _, err := w.R.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func (w ReaderAtWindow) Release() {}
