// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray_test

import (
	"context"
	"sort"
	"testing"

	"github.com/ethersphere/mantaray-core/mantaray"
)

func TestEachNodeVisitsEveryNode(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	for _, p := range []string{"a/x", "a/y", "b"} {
		if err := n.Add([]byte(p), mantaray.AddOptions{Entry: refV1(1)}, ls); err != nil {
			t.Fatalf("add %q: expected no error, got %v", p, err)
		}
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var count int
	err := n.EachNode(context.Background(), ls, func(path []byte, node *mantaray.NodeV1) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// root + "a/" + "a/x" + "a/y" + "b" = 5 nodes.
	if count != 5 {
		t.Fatalf("expected 5 nodes visited, got %d", count)
	}
}

func TestEachPathFindsFilesAndDirectories(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	for _, p := range []string{"dir/a.txt", "dir/b.txt", "root.txt"} {
		if err := n.Add([]byte(p), mantaray.AddOptions{Entry: refV1(1)}, ls); err != nil {
			t.Fatalf("add %q: expected no error, got %v", p, err)
		}
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var files, dirs []string
	err := n.EachPath(context.Background(), ls, func(path []byte, isDir bool) error {
		if isDir {
			dirs = append(dirs, string(path))
		} else {
			files = append(files, string(path))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sort.Strings(files)
	sort.Strings(dirs)

	wantFiles := []string{"dir/a.txt", "dir/b.txt", "root.txt"}
	if len(files) != len(wantFiles) {
		t.Fatalf("expected files %v, got %v", wantFiles, files)
	}
	for i, f := range wantFiles {
		if files[i] != f {
			t.Fatalf("expected files %v, got %v", wantFiles, files)
		}
	}

	wantDirs := []string{"dir"}
	if len(dirs) != len(wantDirs) || dirs[0] != wantDirs[0] {
		t.Fatalf("expected dirs %v, got %v", wantDirs, dirs)
	}
}

func TestEachNodePropagatesCallbackError(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	if err := n.Add([]byte("a"), mantaray.AddOptions{Entry: refV1(1)}, ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	boom := errBoom{}
	err := n.EachNode(context.Background(), ls, func(path []byte, node *mantaray.NodeV1) error {
		return boom
	})
	if err == nil {
		t.Fatal("expected callback error to propagate")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
