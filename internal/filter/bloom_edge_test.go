package filter

import (
	"testing"
)

func TestBloomPolicyBitsPerKeyNormalization(t *testing.T) {
	for _, bits := range []int{0, -5} {
		p := NewBloomPolicy(bits)
		data := p.CreateFilter([][]byte{[]byte("test")})
		if len(data) == 0 {
			t.Errorf("bitsPerKey=%d: expected non-empty filter data", bits)
		}
		if !p.MayMatch(data, []byte("test")) {
			t.Errorf("bitsPerKey=%d: added key should match", bits)
		}
	}
}

func TestChooseNumProbesRanges(t *testing.T) {
	testCases := []struct {
		millibitsPerKey int
		expected        int
	}{
		{1000, 1},   // <= 2080
		{2080, 1},   // boundary
		{2081, 2},   // > 2080, <= 3580
		{3580, 2},   // boundary
		{3581, 3},   // > 3580, <= 5100
		{5100, 3},   // boundary
		{5101, 4},   // > 5100, <= 6640
		{6640, 4},   // boundary
		{6641, 5},   // > 6640, <= 8300
		{8300, 5},   // boundary
		{8301, 6},   // > 8300, <= 10070
		{10070, 6},  // boundary
		{10071, 7},  // > 10070, <= 11720
		{11720, 7},  // boundary
		{11721, 8},  // > 11720, <= 14001
		{14001, 8},  // boundary
		{14002, 9},  // > 14001, <= 16050
		{16050, 9},  // boundary
		{16051, 10}, // > 16050, <= 18300
		{18300, 10}, // boundary
		{18301, 11}, // > 18300, <= 22001
		{22001, 11}, // boundary
		{22002, 12}, // > 22001, <= 25501
		{25501, 12}, // boundary
		{50001, 24}, // > 50000
	}

	for _, tc := range testCases {
		probes := chooseNumProbes(tc.millibitsPerKey)
		if probes != tc.expected {
			t.Errorf("chooseNumProbes(%d) = %d, want %d",
				tc.millibitsPerKey, probes, tc.expected)
		}
	}
}

func TestBlockBuilderEmptyPartitions(t *testing.T) {
	b := NewBlockBuilder(NewBloomPolicy(10))

	// No keys added at all before a start_block far from offset 0: every
	// skipped partition must come out empty (definitive absence).
	b.StartBlock(0)
	b.AddKey([]byte("k1"))
	b.StartBlock(1 << defaultBaseLg)
	// Skip straight to partition 3, leaving partition 1 empty.
	b.StartBlock(3 << defaultBaseLg)
	b.AddKey([]byte("k2"))

	contents := b.Finish()
	r := NewBlockReader(NewBloomPolicy(10), contents)
	if r == nil {
		t.Fatal("expected non-nil reader")
	}

	if !r.KeyMayMatch(0, []byte("k1")) {
		t.Error("k1 should match its own partition")
	}
	if r.KeyMayMatch(1<<defaultBaseLg, []byte("k1")) {
		t.Error("partition 1 is empty, should never match")
	}
	if !r.KeyMayMatch(3<<defaultBaseLg, []byte("k2")) {
		t.Error("k2 should match its own partition")
	}
}

func TestBlockBuilderNoStartBlock(t *testing.T) {
	// Builder used without ever calling StartBlock: Finish should still
	// produce one partition covering everything added.
	b := NewBlockBuilder(NewBloomPolicy(10))
	b.AddKey([]byte("only-key"))
	contents := b.Finish()

	r := NewBlockReader(NewBloomPolicy(10), contents)
	if r == nil {
		t.Fatal("expected non-nil reader")
	}
	if !r.KeyMayMatch(0, []byte("only-key")) {
		t.Error("only-key should match partition 0")
	}
}

func TestBlockReaderUnknownPartitionIsConservative(t *testing.T) {
	b := NewBlockBuilder(NewBloomPolicy(10))
	b.AddKey([]byte("k"))
	contents := b.Finish()

	r := NewBlockReader(NewBloomPolicy(10), contents)
	// An offset far beyond any partition the builder knows about must be
	// treated conservatively (true), since correctness requires no false
	// negatives.
	if !r.KeyMayMatch(1<<40, []byte("anything")) {
		t.Error("out-of-range partition must be treated as a possible match")
	}
}

func TestBlockReaderRejectsShortData(t *testing.T) {
	if NewBlockReader(NewBloomPolicy(10), []byte{1, 2, 3}) != nil {
		t.Error("expected nil reader for too-short data")
	}
}
