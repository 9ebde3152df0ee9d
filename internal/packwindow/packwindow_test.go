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

package packwindow

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWindowOpenUse(t *testing.T) {
	data := []byte("0123456789abcdef")
	path := filepath.Join(t.TempDir(), "container.objpack")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	got, err := w.Use(10)
	if err != nil {
		t.Fatalf("Use(10): %v", err)
	}
	if !bytes.Equal(got, data[10:]) {
		t.Fatalf("Use(10): got %q, want %q", got, data[10:])
	}

	if _, err := w.Use(int64(len(data)) + 1); err == nil {
		t.Fatalf("Use past end of file: want an error")
	}
}

func TestReaderAtWindowUse(t *testing.T) {
	data := []byte("the quick brown fox")
	w := ReaderAtWindow{R: bytes.NewReader(data), Size: int64(len(data))}

	got, err := w.Use(4)
	if err != nil {
		t.Fatalf("Use(4): %v", err)
	}
	if !bytes.Equal(got, data[4:]) {
		t.Fatalf("Use(4): got %q, want %q", got, data[4:])
	}

	if _, err := w.Use(-1); err == nil {
		t.Fatalf("Use(-1): want an error")
	}
}
