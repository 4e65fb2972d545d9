package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gravkern/internal/sim"
)

type ExportSnapshot struct {
	Leap       int          `json:"leap"`
	Time       float64      `json:"time"`
	Positions  [][3]float64 `json:"positions"`
	Velocities [][3]float64 `json:"velocities"`
}

type ExportData struct {
	RunMetadata
	Snapshots []ExportSnapshot `json:"snapshots"`
}

func NewExport(meta RunMetadata, snaps []sim.Snapshot) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Snapshots:   make([]ExportSnapshot, len(snaps)),
	}
	for i, snap := range snaps {
		es := ExportSnapshot{
			Leap:       snap.Leap,
			Time:       snap.Time,
			Positions:  make([][3]float64, len(snap.Positions)),
			Velocities: make([][3]float64, len(snap.Velocities)),
		}
		for j, p := range snap.Positions {
			es.Positions[j] = [3]float64{p.X, p.Y, p.Z}
		}
		for j, v := range snap.Velocities {
			es.Velocities[j] = [3]float64{v.X, v.Y, v.Z}
		}
		data.Snapshots[i] = es
	}
	return data
}

// WriteJSON encodes a run as indented JSON.
func WriteJSON(w io.Writer, meta RunMetadata, snaps []sim.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExport(meta, snaps))
}

// ExportJSON writes a run to path, or to stdout when path is "" or "-".
func ExportJSON(path string, meta RunMetadata, snaps []sim.Snapshot) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, meta, snaps)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, snaps)
}
