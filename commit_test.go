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
	"errors"
	"fmt"
	"testing"
)

func TestDecodeCommitBareNoParents(t *testing.T) {
	identEntries := [][3]any{
		{byte(0x00), byte(0x78), "Committer Name <committer@example.com>"}, // tz +120
	}
	pathEntries := [][3]any{
		{byte(0x81), byte(0xA4), "x"},
	}
	pack := buildTestPack(0, identEntries, pathEntries)
	commitOffset := int64(len(pack))

	treeFP := fpOf("tree-bare")
	commitTime := uint64(1700000000)
	message := "Bare commit.\n"

	var body []byte
	body = appendFingerprintInline(body, treeFP)
	body = appendVarint(body, 0) // nb_parents
	body = appendVarint(body, commitTime)
	body = appendVarint(body, 0) // committer index
	body = appendVarint(body, 0) // author_time delta 0, same instant
	body = appendVarint(body, 0) // author index
	body = append(body, deflate([]byte(message))...)
	pack = append(pack, body...)

	index := &fakeIndex{}
	ct := newTestContainer(t, 0, nil, pack, index)

	want := fmt.Sprintf("tree %s\nauthor Committer Name <committer@example.com> %d +0120\ncommitter Committer Name <committer@example.com> %d +0120\n%s",
		ct.caps.Index.Hex(treeFP), commitTime, commitTime, message)

	got, err := DecodeCommit(ct, commitOffset, len(want))
	if err != nil {
		t.Fatalf("DecodeCommit: %v", err)
	}
	if string(got) != want {
		t.Fatalf("DecodeCommit:\ngot  %q\nwant %q", got, want)
	}
}

func TestDecodeCommitWithParentAndTimeSkew(t *testing.T) {
	identEntries := [][3]any{
		{byte(0x00), byte(0x78), "Committer Name <committer@example.com>"}, // tz +120
		{byte(0xFF), byte(0xC4), "Author Name <author@example.com>"},      // tz -60
	}
	pathEntries := [][3]any{
		{byte(0x81), byte(0xA4), "x"},
	}
	pack := buildTestPack(0, identEntries, pathEntries)
	commitOffset := int64(len(pack))

	treeFP := fpOf("tree-with-parent")
	parentFP := fpOf("parent-one")
	commitTime := uint64(1700000000)
	const delta = 3600 // author committed an hour before the committer
	authorTime := commitTime - delta
	authorEncoded := uint64(delta << 1) // low bit 0: subtract from commit_time
	message := "Commit with one parent and author/committer time skew.\n"

	var body []byte
	body = appendFingerprintInline(body, treeFP)
	body = appendVarint(body, 1) // nb_parents
	body = appendFingerprintInline(body, parentFP)
	body = appendVarint(body, commitTime)
	body = appendVarint(body, 0) // committer index
	body = appendVarint(body, authorEncoded)
	body = appendVarint(body, 1) // author index
	body = append(body, deflate([]byte(message))...)
	pack = append(pack, body...)

	index := &fakeIndex{}
	ct := newTestContainer(t, 0, nil, pack, index)

	want := fmt.Sprintf(
		"tree %s\nparent %s\nauthor Author Name <author@example.com> %d -0060\ncommitter Committer Name <committer@example.com> %d +0120\n%s",
		ct.caps.Index.Hex(treeFP), ct.caps.Index.Hex(parentFP), authorTime, commitTime, message)

	got, err := DecodeCommit(ct, commitOffset, len(want))
	if err != nil {
		t.Fatalf("DecodeCommit: %v", err)
	}
	if string(got) != want {
		t.Fatalf("DecodeCommit:\ngot  %q\nwant %q", got, want)
	}
}

func TestDecodeAuthorTimeSymmetry(t *testing.T) {
	const commitTime = int64(1_650_000_000)
	for _, delta := range []int64{0, 1, 59, 3600, 86400, 1 << 30} {
		for _, sign := range []uint64{0, 1} {
			encoded := uint64(delta)<<1 | sign
			got := decodeAuthorTime(commitTime, encoded)
			var want int64
			if sign == 1 {
				want = commitTime + delta
			} else {
				want = commitTime - delta
			}
			if got != want {
				t.Fatalf("decodeAuthorTime(delta=%d, sign=%d): got %d, want %d", delta, sign, got, want)
			}
		}
	}
}

func TestDecodeCommitOutputOverflow(t *testing.T) {
	pack := buildTestPack(0,
		[][3]any{{byte(0), byte(0), "solo <solo@example.com>"}},
		[][3]any{{byte(0x81), byte(0xA4), "x"}},
	)
	commitOffset := int64(len(pack))

	treeFP := fpOf("tree-overflow")
	var body []byte
	body = appendFingerprintInline(body, treeFP)
	body = appendVarint(body, 0)
	body = appendVarint(body, 1700000000)
	body = appendVarint(body, 0)
	body = appendVarint(body, 0)
	body = appendVarint(body, 0)
	body = append(body, deflate([]byte("hi\n"))...)
	pack = append(pack, body...)

	ct := newTestContainer(t, 0, nil, pack, &fakeIndex{})
	if _, err := DecodeCommit(ct, commitOffset, 1); !errors.Is(err, ErrTruncated) {
		t.Fatalf("DecodeCommit with undersized buffer: got %v, want ErrTruncated", err)
	}
}
