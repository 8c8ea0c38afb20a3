// Package snapshot serializes lattice states for visualization collaborators.
// Files are zstd-compressed JSON; the core never reads them back during a run.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"spin-market/internal/model"
)

const version = 1

// File is the on-disk snapshot shape.
type File struct {
	Version int            `json:"version"`
	Sweep   int            `json:"sweep"`
	Seed    int64          `json:"seed"`
	Grid    model.Snapshot `json:"grid"`
}

// Write stores a lattice snapshot at path, creating parent directories.
func Write(path string, sweep int, seed int64, grid model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(enc)

	payload := File{Version: version, Sweep: sweep, Seed: seed, Grid: grid}
	if err := json.NewEncoder(w).Encode(&payload); err != nil {
		_ = enc.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads a snapshot written by Write.
func Read(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var payload File
	if err := json.NewDecoder(dec).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Version != version {
		return nil, fmt.Errorf("unsupported snapshot version %d", payload.Version)
	}
	if payload.Grid.L*payload.Grid.L != len(payload.Grid.Spins) {
		return nil, fmt.Errorf("corrupt snapshot: %d spins for size %d", len(payload.Grid.Spins), payload.Grid.L)
	}
	return &payload, nil
}
