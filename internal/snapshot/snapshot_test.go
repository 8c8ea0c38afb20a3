package snapshot

import (
	"bufio"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"spin-market/internal/model"
	"spin-market/internal/sim"
)

func TestSnapshotRoundTrip(t *testing.T) {
	p := model.DefaultParams()
	p.L = 12
	p.NeutralFraction = 0.25
	lat, err := model.NewLattice(p, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewLattice: %v", err)
	}
	grid := lat.Snapshot()

	path := filepath.Join(t.TempDir(), "snaps", "sweep_000010.json.zst")
	if err := Write(path, 10, p.Seed, grid); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Sweep != 10 || got.Seed != p.Seed || got.Grid.L != 12 {
		t.Fatalf("header mismatch: %+v", got)
	}
	for idx := range grid.Spins {
		if got.Grid.Spins[idx] != grid.Spins[idx] {
			t.Fatalf("spin %d = %d, want %d", idx, got.Grid.Spins[idx], grid.Spins[idx])
		}
		if got.Grid.Neutral[idx] != grid.Neutral[idx] {
			t.Fatalf("mask %d mismatch", idx)
		}
	}
}

func TestReadRejectsCorruptGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.zst")
	grid := model.Snapshot{L: 4, Spins: make([]int8, 3), Neutral: make([]bool, 3)}
	if err := Write(path, 0, 1, grid); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("Read accepted a snapshot with mismatched dimensions")
	}
}

func TestJSONLZstdWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series", "run.jsonl.zst")
	w, err := NewJSONLZstdWriter(path)
	if err != nil {
		t.Fatalf("NewJSONLZstdWriter: %v", err)
	}
	rows := []sim.SweepRow{
		{Sweep: 0, Magnetization: 0.5, LogPrice: 0.5},
		{Sweep: 1, Magnetization: -0.25, LogPrice: 0.25},
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	scanner := bufio.NewScanner(dec)
	var got []sim.SweepRow
	for scanner.Scan() {
		var r sim.SweepRow
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, r)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("read %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}
