// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mantaray_test

import (
	"bytes"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/ethersphere/mantaray-core/mantaray"
)

type addr [32]byte

type mockLoadSaver struct {
	mtx   sync.Mutex
	store map[addr][]byte
	saves int
}

func newMockLoadSaver() *mockLoadSaver {
	return &mockLoadSaver{store: make(map[addr][]byte)}
}

func (m *mockLoadSaver) Save(b []byte) ([]byte, error) {
	var a addr
	hasher := sha256.New()
	if _, err := hasher.Write(b); err != nil {
		return nil, err
	}
	copy(a[:], hasher.Sum(nil))
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.store[a] = b
	m.saves++
	return a[:], nil
}

func (m *mockLoadSaver) Load(ab []byte) ([]byte, error) {
	var a addr
	copy(a[:], ab)
	m.mtx.Lock()
	defer m.mtx.Unlock()
	b, ok := m.store[a]
	if !ok {
		return nil, mantaray.ErrNotFound
	}
	return b, nil
}

func TestPersistIdempotenceV1(t *testing.T) {
	n := mantaray.New()
	paths := [][]byte{
		[]byte("aa"),
		[]byte("b"),
		[]byte("aaaaaa"),
		[]byte("aaaaab"),
		[]byte("abbbb"),
		[]byte("abbba"),
		[]byte("bbbbba"),
		[]byte("bbbaaa"),
		[]byte("bbbaab"),
	}
	ls := newMockLoadSaver()
	for _, c := range paths {
		var v [32]byte
		copy(v[:], c)
		if err := n.Add(c, mantaray.AddOptions{Entry: v[:]}, ls); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := n.Save(ls); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, c := range paths {
		m, err := n.Lookup(c, ls)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var v [32]byte
		copy(v[:], c)
		if !bytes.Equal(m, v[:]) {
			t.Fatalf("expected value %x, got %x", v[:], m)
		}
	}
}

func TestSaveIsNoopWhenClean(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	if err := n.Add([]byte("a"), mantaray.AddOptions{Entry: make([]byte, 32)}, ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	before := ls.saves
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ls.saves != before {
		t.Fatalf("expected no additional saves on a clean tree, went from %d to %d", before, ls.saves)
	}
}

func TestAddAfterSaveOnlyDirtiesAffectedPath(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	for _, c := range [][]byte{[]byte("aa"), []byte("ab"), []byte("ac")} {
		var v [32]byte
		copy(v[:], c)
		if err := n.Add(c, mantaray.AddOptions{Entry: v[:]}, ls); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	before := ls.saves

	if err := n.Add([]byte("ac"), mantaray.AddOptions{Entry: make([]byte, 32)}, ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := n.Save(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// "ac" sits under root -> "a" -> "c": only the leaf, the intermediate
	// node and the root are re-saved; the "aa" and "ab" leaves stay clean.
	if got := ls.saves - before; got != 3 {
		t.Fatalf("expected exactly 3 new saves (leaf, intermediate, root) after mutating a leaf, got %d", got)
	}
}

func TestLoadRoundTripV1(t *testing.T) {
	n := mantaray.New()
	ls := newMockLoadSaver()
	paths := [][]byte{[]byte("root/a"), []byte("root/b"), []byte("root/abc")}
	for _, c := range paths {
		var v [32]byte
		copy(v[:], c)
		if err := n.Add(c, mantaray.AddOptions{Entry: v[:], Metadata: mantaray.Metadata{"k": "v"}}, ls); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	ref, err := n.Save(ls)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	loaded := mantaray.NewNodeRefV1(ref)
	if err := loaded.Load(ls, ref); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := loaded.LoadAll(ls); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Equal(loaded); err != nil {
		t.Fatalf("expected loaded trie to equal original: %v", err)
	}
}

func TestLoadWithoutLoaderFails(t *testing.T) {
	n := mantaray.NewNodeRefV1([]byte{1, 2, 3})
	if err := n.Load(nil, n.Reference()); err == nil {
		t.Fatal("expected an error when loading a reference without a loader")
	}
}
