package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Run describes how a result was produced.
type Run struct {
	Scenario string
	Seed     int64
	Config   dynamo.Config
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Dt           float64            `json:"dt"`
	StepsPerLeap int                `json:"steps_per_leap"`
	Leaps        int                `json:"leaps"`
	Bodies       int                `json:"bodies"`
	Names        []string           `json:"names,omitempty"`
	Masses       []float64          `json:"masses"`
	StepsTaken   int                `json:"steps_taken"`
	Halted       bool               `json:"halted"`
	Errors       []string           `json:"errors,omitempty"`
	EnergyDrift  float64            `json:"energy_drift"`
	Metrics      map[string]float64 `json:"metrics"`
}

// StateRow is one body at one snapshot in states.csv.
type StateRow struct {
	Leap int     `csv:"leap"`
	Time float64 `csv:"time"`
	Body int     `csv:"body"`
	Name string  `csv:"name"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
	VX   float64 `csv:"vx"`
	VY   float64 `csv:"vy"`
	VZ   float64 `csv:"vz"`
}

func newRunID(scenario string) string {
	return fmt.Sprintf("%s_%s", scenario, uuid.NewString()[:8])
}

// NewMetadata summarises result for metadata.json.
func NewMetadata(run Run, result *sim.Result) RunMetadata {
	meta := RunMetadata{
		ID:           newRunID(run.Scenario),
		Scenario:     run.Scenario,
		Timestamp:    time.Now(),
		Seed:         run.Seed,
		Dt:           run.Config.Dt,
		StepsPerLeap: run.Config.StepsPerLeap,
		Leaps:        run.Config.Leaps,
		Bodies:       len(result.Masses),
		Names:        result.Names,
		Masses:       result.Masses,
		StepsTaken:   result.StepsTaken,
		Halted:       result.Halted,
		EnergyDrift:  finite(result.EnergyDrift),
		Metrics:      make(map[string]float64, len(result.Metrics)),
	}
	for k, v := range result.Metrics {
		meta.Metrics[k] = finite(v)
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	return meta
}

// finite maps NaN and Inf, which JSON cannot carry, to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Rows flattens the snapshots of result into one row per body.
func Rows(result *sim.Result) []*StateRow {
	rows := make([]*StateRow, 0, len(result.Snapshots)*len(result.Masses))
	for _, snap := range result.Snapshots {
		for i, p := range snap.Positions {
			v := snap.Velocities[i]
			name := fmt.Sprintf("b%d", i)
			if i < len(result.Names) && result.Names[i] != "" {
				name = result.Names[i]
			}
			rows = append(rows, &StateRow{
				Leap: snap.Leap, Time: snap.Time, Body: i, Name: name,
				X: p.X, Y: p.Y, Z: p.Z,
				VX: v.X, VY: v.Y, VZ: v.Z,
			})
		}
	}
	return rows
}

// Save writes metadata.json and states.csv into a new run directory and
// returns the run ID.
func (s *Store) Save(run Run, result *sim.Result) (string, error) {
	meta := NewMetadata(run, result)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	rows := Rows(result)
	if len(rows) == 0 {
		return meta.ID, nil
	}
	if err := gocsv.MarshalFile(&rows, csvFile); err != nil {
		return "", fmt.Errorf("writing states: %w", err)
	}

	return meta.ID, nil
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads states.csv back into snapshots, one per leap in file
// order.
func (s *Store) LoadStates(runID string) ([]sim.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []sim.Snapshot{}, nil
	}

	var rows []*StateRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("reading states: %w", err)
	}

	snaps := make([]sim.Snapshot, 0)
	for _, row := range rows {
		if len(snaps) == 0 || snaps[len(snaps)-1].Leap != row.Leap {
			snaps = append(snaps, sim.Snapshot{Leap: row.Leap, Time: row.Time})
		}
		cur := &snaps[len(snaps)-1]
		cur.Positions = append(cur.Positions, r3.Vec{X: row.X, Y: row.Y, Z: row.Z})
		cur.Velocities = append(cur.Velocities, r3.Vec{X: row.VX, Y: row.VY, Z: row.VZ})
	}
	return snaps, nil
}

// Ensembles rebuilds an ensemble for every stored snapshot of a run.
func (s *Store) Ensembles(runID string) (*RunMetadata, []*dynamo.Ensemble, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	snaps, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*dynamo.Ensemble, 0, len(snaps))
	for _, snap := range snaps {
		e := &dynamo.Ensemble{
			Names:      meta.Names,
			Masses:     meta.Masses,
			Positions:  snap.Positions,
			Velocities: snap.Velocities,
		}
		if err := e.Validate(); err != nil {
			return nil, nil, fmt.Errorf("run %s leap %d: %w", runID, snap.Leap, err)
		}
		out = append(out, e)
	}
	return meta, out, nil
}
