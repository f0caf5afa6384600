package sstablekv

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aalhour/sstablekv/internal/filter"
)

func buildAndOpenTable(t *testing.T, opts *Options, entries [][2]string) *Table {
	t.Helper()
	s := DefaultStorage()
	path := filepath.Join(t.TempDir(), "test.sst")

	wf, err := s.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	tb := NewTableBuilder(wf, opts)
	for _, e := range entries {
		if err := tb.Add([]byte(e[0]), []byte(e[1])); err != nil {
			t.Fatalf("Add(%q, %q) failed: %v", e[0], e[1], err)
		}
	}
	if err := tb.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := wf.Close(); err != nil {
		t.Fatalf("Close (write) failed: %v", err)
	}

	rf, err := s.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { rf.Close() })

	tbl, err := OpenTable(rf, opts)
	if err != nil {
		t.Fatalf("OpenTable failed: %v", err)
	}
	return tbl
}

func TestTable_EndToEnd(t *testing.T) {
	var entries [][2]string
	for i := range 500 {
		entries = append(entries, [2]string{fmt.Sprintf("key-%05d", i), fmt.Sprintf("value-%05d", i)})
	}

	opts := DefaultOptions()
	opts.BlockSize = 256
	opts.FilterPolicy = filter.NewBloomPolicy(10)

	tbl := buildAndOpenTable(t, opts, entries)

	for _, e := range entries {
		value, found, err := tbl.Get(nil, []byte(e[0]))
		if err != nil || !found || string(value) != e[1] {
			t.Fatalf("Get(%q) = (%q, %v, %v), want (%q, true, nil)", e[0], value, found, err, e[1])
		}
	}

	it := tbl.NewIterator(nil)
	defer it.Close()
	n := 0
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if n >= len(entries) {
			t.Fatalf("iterator yielded more than %d entries", len(entries))
		}
		if string(it.Key()) != entries[n][0] || string(it.Value()) != entries[n][1] {
			t.Fatalf("entry %d = (%q, %q), want (%q, %q)", n, it.Key(), it.Value(), entries[n][0], entries[n][1])
		}
		n++
	}
	if err := it.Status(); err != nil {
		t.Fatalf("iterator Status = %v, want nil", err)
	}
	if n != len(entries) {
		t.Fatalf("iterator yielded %d entries, want %d", n, len(entries))
	}
}

func TestTable_DefaultOptionsAndComparator(t *testing.T) {
	entries := [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	tbl := buildAndOpenTable(t, nil, entries)

	for _, e := range entries {
		value, found, err := tbl.Get(nil, []byte(e[0]))
		if err != nil || !found || string(value) != e[1] {
			t.Fatalf("Get(%q) = (%q, %v, %v), want (%q, true, nil)", e[0], value, found, err, e[1])
		}
	}

	_, found, err := tbl.Get(nil, []byte("missing"))
	if err != nil || found {
		t.Fatalf("Get(missing) = (found=%v, err=%v), want (false, nil)", found, err)
	}
}

func TestTable_ApproximateOffsetOf(t *testing.T) {
	var entries [][2]string
	for i := range 100 {
		entries = append(entries, [2]string{fmt.Sprintf("k%04d", i), fmt.Sprintf("v%04d", i)})
	}
	opts := DefaultOptions()
	opts.BlockSize = 64
	tbl := buildAndOpenTable(t, opts, entries)

	if off := tbl.ApproximateOffsetOf([]byte("k0000")); off != 0 {
		t.Errorf("ApproximateOffsetOf(first key) = %d, want 0", off)
	}
}

func TestTableBuilder_RejectsOutOfOrderKeys(t *testing.T) {
	s := DefaultStorage()
	path := filepath.Join(t.TempDir(), "test.sst")
	wf, err := s.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer wf.Close()

	tb := NewTableBuilder(wf, nil)
	if err := tb.Add([]byte("b"), []byte("1")); err != nil {
		t.Fatalf("Add(b) failed: %v", err)
	}
	if err := tb.Add([]byte("a"), []byte("2")); err == nil {
		t.Error("Add(a) after Add(b) should fail, got nil error")
	}
}

func TestTableBuilder_Abandon(t *testing.T) {
	s := DefaultStorage()
	path := filepath.Join(t.TempDir(), "test.sst")
	wf, err := s.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer wf.Close()

	tb := NewTableBuilder(wf, nil)
	if err := tb.Add([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	tb.Abandon()
	if err := tb.Add([]byte("k2"), []byte("v2")); err == nil {
		t.Error("Add after Abandon should fail, got nil error")
	}
}
