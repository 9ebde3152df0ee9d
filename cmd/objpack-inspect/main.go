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

// Command objpack-inspect decodes a single commit or tree object out of a
// container file and prints its canonical text to stdout. It exists to
// exercise the objpack package against real files; the container format
// itself doesn't record per-object offsets or sizes, so both must be
// supplied on the command line (an ingestion-time index, out of scope
// here, would ordinarily supply them).
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/sneller-labs/objpack"
	"github.com/sneller-labs/objpack/internal/fsindex"
	"github.com/sneller-labs/objpack/internal/packheader"
	"github.com/sneller-labs/objpack/internal/packwindow"
	"github.com/sneller-labs/objpack/internal/zlibcap"
)

func main() {
	var (
		offset  = flag.Int64("offset", -1, "byte offset of the object to decode")
		size    = flag.Int("size", -1, "exact decoded size of the object, in bytes")
		kind    = flag.String("kind", "", "object kind: commit or tree")
		idxPath = flag.String("idx", "", "path to the .idx sidecar (defaults to <container>.idx)")
		warm    = flag.Bool("warm", false, "pre-load both dictionaries before decoding")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: objpack-inspect [flags] <container>")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *offset, *size, *kind, *idxPath, *warm); err != nil {
		fmt.Fprintln(os.Stderr, "objpack-inspect:", err)
		os.Exit(1)
	}
}

func run(path string, offset int64, size int, kind, idxPath string, warm bool) error {
	if offset < 0 || size < 0 {
		return fmt.Errorf("--offset and --size are required")
	}
	if kind != "commit" && kind != "tree" {
		return fmt.Errorf("--kind must be %q or %q, got %q", "commit", "tree", kind)
	}

	hdr, err := packheader.Read(path)
	if err != nil {
		return err
	}

	win, err := packwindow.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer win.Close()

	if idxPath == "" {
		idxPath = path + ".idx"
	}
	index, err := fsindex.Load(idxPath, hdr.NumObjects, hdr.FingerprintTable)
	if err != nil {
		return err
	}

	container, err := objpack.NewContainer(hdr.NumObjects, hdr.FingerprintTable, objpack.Capabilities{
		Pack:    win,
		Inflate: zlibcap.Inflater{},
		Index:   index,
	}, objpack.Options{
		Logf: func(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) },
	})
	if err != nil {
		return err
	}

	if warm {
		if err := container.WarmDictionaries(); err != nil {
			return err
		}
	}

	var out []byte
	switch kind {
	case "commit":
		out, err = objpack.DecodeCommit(container, offset, size)
	case "tree":
		out, err = objpack.DecodeTree(container, offset, size)
	}
	if err != nil {
		return fmt.Errorf("decoding %s at %d: %w", kind, offset, err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
