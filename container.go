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

// Package objpack decodes commit and tree objects out of a compact,
// dictionary-compressed, content-addressed container format. It does not
// open containers, memory-map their bytes, inflate raw DEFLATE streams,
// or look up object offsets by fingerprint - those are injected
// capabilities (see Capabilities) supplied by the embedder.
package objpack

import "fmt"

// Options tunes decode behavior that spec.md leaves to the embedder.
// The zero value is a usable default.
type Options struct {
	// MaxDictionaryBytes bounds the uncompressed size a single
	// dictionary is allowed to declare, guarding against a hostile
	// dict_size varint driving an unbounded allocation before any of
	// it has been validated by inflating. Zero means
	// defaultMaxDictionaryBytes.
	MaxDictionaryBytes int

	// MaxCopyDepth bounds how many tree-to-tree copy directives
	// DecodeTree will follow recursively before giving up with
	// ErrRecursionLimit, guarding against a cyclic or pathologically
	// deep chain of copy sources driving unbounded recursion. Zero
	// means defaultMaxCopyDepth.
	MaxCopyDepth int

	// Logf, if non-nil, receives non-fatal diagnostic messages (such
	// as dictionary cache warm events). It is never used on the
	// decode hot path itself, which reports everything through
	// returned errors.
	Logf func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// defaultMaxCopyDepth bounds recursive tree-copy chains when
// Options.MaxCopyDepth is left at its zero value.
const defaultMaxCopyDepth = 64

func (o Options) maxCopyDepth() int {
	if o.MaxCopyDepth > 0 {
		return o.MaxCopyDepth
	}
	return defaultMaxCopyDepth
}

// Container is a handle onto one on-disk container: the caller-provided
// object count and fingerprint table, plus the two dictionaries this
// package loads lazily on first use and caches for the handle's lifetime
// (spec.md §3, §4.D).
//
// A Container is safe for concurrent reads once both dictionaries have
// been pre-loaded (call WarmDictionaries) or the embedder otherwise
// synchronizes first access; the core itself performs no locking around
// the lazy loads (spec.md §5).
type Container struct {
	// NumObjects is the number of objects in the container.
	NumObjects int
	// FingerprintTable is NumObjects*FingerprintSize bytes, fingerprint
	// table row i starting at FingerprintTable[i*FingerprintSize:].
	FingerprintTable []byte

	caps Capabilities
	opts Options

	identDict    *dictionary
	pathDict     *dictionary
	identDictEnd int64
}

// NewContainer constructs a Container handle. numObjects and
// fingerprintTable must describe the container truthfully; this package
// trusts them the way it trusts any other caller-supplied metadata.
func NewContainer(numObjects int, fingerprintTable []byte, caps Capabilities, opts Options) (*Container, error) {
	if len(fingerprintTable) != numObjects*FingerprintSize {
		return nil, fmt.Errorf("objpack: fingerprint table is %d bytes, want %d for %d objects",
			len(fingerprintTable), numObjects*FingerprintSize, numObjects)
	}
	if caps.Pack == nil || caps.Inflate == nil || caps.Index == nil {
		return nil, fmt.Errorf("objpack: NewContainer requires Pack, Inflate, and Index capabilities")
	}
	return &Container{
		NumObjects:       numObjects,
		FingerprintTable: fingerprintTable,
		caps:             caps,
		opts:             opts,
	}, nil
}

// WarmDictionaries loads both dictionaries up front. Embedders sharing a
// Container across goroutines should call this before fan-out, since the
// lazy loaders themselves are not synchronized (spec.md §5).
func (ct *Container) WarmDictionaries() error {
	if err := ct.ensureIdentDict(); err != nil {
		return err
	}
	if err := ct.ensurePathDict(); err != nil {
		return err
	}
	ct.opts.logf("objpack: dictionaries warm (%d identity entries, %d path entries)",
		ct.identDict.len(), ct.pathDict.len())
	return nil
}

// NewCursor returns a Cursor positioned at offset within ct, backed by a
// fresh window. Use it to call ResolveFingerprintRef or ResolveIdentRef
// directly; DecodeCommit and DecodeTree manage their own cursors
// internally and don't need one passed in.
func (ct *Container) NewCursor(offset int64) *Cursor {
	return &Cursor{win: newWindow(ct.caps.Pack), off: offset}
}

// Release releases the mapping backing cur. Callers that obtained a
// Cursor via NewCursor must call Release when done with it, on every exit
// path, per spec.md §5's window discipline.
func (cur *Cursor) Release() {
	if cur.win != nil {
		cur.win.release()
	}
}
