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

import "errors"

// Sentinel errors for the error kinds in the format's decode contract.
// Callers should use errors.Is against these rather than string-matching.
var (
	// ErrTruncated indicates a varint could not be read, a mapped
	// window was smaller than required, or an output buffer would
	// have overflowed.
	ErrTruncated = errors.New("objpack: truncated")

	// ErrBadIndex indicates a fingerprint-table or dictionary index
	// was out of range, or zero where a nonzero value was required.
	ErrBadIndex = errors.New("objpack: bad index")

	// ErrBadDictSize indicates a dictionary's declared uncompressed
	// size was implausible (smaller than the minimum one-entry size, or
	// larger than Options.MaxDictionaryBytes allows).
	ErrBadDictSize = errors.New("objpack: bad dictionary size")

	// ErrBadDict indicates a dictionary's inflated contents did not
	// match its declared size, or its entries did not parse cleanly.
	ErrBadDict = errors.New("objpack: bad dictionary")

	// ErrBadType indicates an object header's type nibble disagreed
	// with the expected tree tag during copy recursion.
	ErrBadType = errors.New("objpack: unexpected object type")

	// ErrBadCopy indicates a copy directive had a zero count, or no
	// source offset could be established for it.
	ErrBadCopy = errors.New("objpack: bad copy directive")

	// ErrRecursionLimit indicates a tree's copy directives recursed
	// through other trees more deeply than Options.MaxCopyDepth allows.
	ErrRecursionLimit = errors.New("objpack: copy recursion too deep")
)
