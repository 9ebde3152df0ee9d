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

// Command objpackd is a long-lived daemon that keeps one or more
// containers' dictionaries warm and serves decode requests over a Unix
// socket, so short-lived client processes never pay the dictionary-load
// cost themselves. It is deliberately a plain net.Listener rather than an
// SCM_RIGHTS fd-passing service: every client request is a self-contained
// decode, so there is never a file descriptor to hand over, only bytes.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"golang.org/x/exp/maps"

	"github.com/sneller-labs/objpack"
	"github.com/sneller-labs/objpack/internal/fsindex"
	"github.com/sneller-labs/objpack/internal/packheader"
	"github.com/sneller-labs/objpack/internal/packwindow"
	"github.com/sneller-labs/objpack/internal/zlibcap"
)

func main() {
	configPath := flag.String("config", "", "path to a containers.yaml or .jsonc config file")
	flag.Parse()
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: objpackd --config <path>")
		os.Exit(2)
	}
	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "objpackd:", err)
		os.Exit(1)
	}
}

// handle bundles an open container with the resources its capabilities
// hold onto, so the daemon can close them on shutdown.
type handle struct {
	name string
	ct   *objpack.Container
	win  *packwindow.Window
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	names := maps.Keys(cfg.Containers)
	sort.Strings(names)

	handles := make(map[string]*handle, len(names))
	defer func() {
		for _, h := range handles {
			h.win.Close()
		}
	}()

	for _, name := range names {
		cc := cfg.Containers[name]
		h, err := openContainer(name, cc)
		if err != nil {
			return fmt.Errorf("opening container %q: %w", name, err)
		}
		handles[name] = h
		if cc.Warm {
			if err := h.ct.WarmDictionaries(); err != nil {
				return fmt.Errorf("warming container %q: %w", name, err)
			}
		}
	}

	if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", cfg.SocketPath, err)
	}
	ln, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.SocketPath, err)
	}
	defer ln.Close()

	fmt.Fprintf(os.Stderr, "objpackd: serving %d container(s) on %s\n", len(handles), cfg.SocketPath)

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(conn, handles)
		}()
	}
}

func openContainer(name string, cc ContainerConfig) (*handle, error) {
	hdr, err := packheader.Read(cc.Path)
	if err != nil {
		return nil, err
	}
	win, err := packwindow.Open(cc.Path)
	if err != nil {
		return nil, err
	}

	idxPath := cc.IdxPath
	if idxPath == "" {
		idxPath = cc.Path + ".idx"
	}
	index, err := fsindex.Load(idxPath, hdr.NumObjects, hdr.FingerprintTable)
	if err != nil {
		win.Close()
		return nil, err
	}

	ct, err := objpack.NewContainer(hdr.NumObjects, hdr.FingerprintTable, objpack.Capabilities{
		Pack:    win,
		Inflate: zlibcap.Inflater{},
		Index:   index,
	}, objpack.Options{
		Logf: func(format string, args ...any) { fmt.Fprintf(os.Stderr, "objpackd[%s]: "+format+"\n", append([]any{name}, args...)...) },
	})
	if err != nil {
		win.Close()
		return nil, err
	}
	return &handle{name: name, ct: ct, win: win}, nil
}

// serveConn handles one client connection: each line is a request of the
// form "<container> <kind> <offset> <size>", and the response is either
// the decoded canonical text followed by a newline, or a single
// "ERR: <message>" line.
func serveConn(conn net.Conn, handles map[string]*handle) {
	defer conn.Close()
	reqID := uuid.New().String()[:8]
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "objpackd[%s]: read: %v\n", reqID, err)
			}
			return
		}
		resp := handleRequest(handles, strings.TrimSpace(line))
		if _, err := io.WriteString(conn, resp); err != nil {
			fmt.Fprintf(os.Stderr, "objpackd[%s]: write: %v\n", reqID, err)
			return
		}
	}
}

func handleRequest(handles map[string]*handle, line string) string {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return "ERR: want \"<container> <kind> <offset> <size>\"\n"
	}
	name, kind, offsetStr, sizeStr := fields[0], fields[1], fields[2], fields[3]

	h, ok := handles[name]
	if !ok {
		return fmt.Sprintf("ERR: unknown container %q\n", name)
	}
	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil {
		return fmt.Sprintf("ERR: bad offset %q\n", offsetStr)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return fmt.Sprintf("ERR: bad size %q\n", sizeStr)
	}

	var out []byte
	switch kind {
	case "commit":
		out, err = objpack.DecodeCommit(h.ct, offset, size)
	case "tree":
		out, err = objpack.DecodeTree(h.ct, offset, size)
	default:
		return fmt.Sprintf("ERR: unknown kind %q\n", kind)
	}
	if err != nil {
		return fmt.Sprintf("ERR: %v\n", err)
	}
	return string(out) + "\n"
}
