package partition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Sidecar is the .meta.json file written next to each partition. It lets
// downstream consumers discover a partition's shape and time range without
// opening the SQLite file.
type Sidecar struct {
	PartitionID   string        `json:"partition_id"`
	Activity      string        `json:"activity"`
	Fingerprint   string        `json:"fingerprint"`
	FormatVersion int           `json:"format_version"`
	RowCount      int64         `json:"row_count"`
	SizeBytes     int64         `json:"size_bytes"`
	MinTime       *int64        `json:"min_time,omitempty"`
	MaxTime       *int64        `json:"max_time,omitempty"`
	Columns       []ColumnMeta  `json:"columns"`
	CreatedAt     int64         `json:"created_at"`
}

// ColumnMeta describes one column in the sidecar.
type ColumnMeta struct {
	Name      string `json:"name"`
	SQLType   string `json:"sql_type"`
	Nullable  bool   `json:"nullable"`
	NullCount int64  `json:"null_count"`
	Min       string `json:"min,omitempty"`
	Max       string `json:"max,omitempty"`
}

// formatVersion is bumped when the partition layout changes incompatibly.
const formatVersion = 1

// writeSidecar renders and writes the metadata sidecar for a built
// partition, returning its path.
func writeSidecar(outputDir string, info *Info) (string, error) {
	sidecar := Sidecar{
		PartitionID:   info.PartitionID,
		Activity:      info.Activity,
		Fingerprint:   info.Fingerprint,
		FormatVersion: formatVersion,
		RowCount:      info.RowCount,
		SizeBytes:     info.SizeBytes,
		MinTime:       info.MinTime,
		MaxTime:       info.MaxTime,
		CreatedAt:     info.CreatedAt.UnixNano(),
	}

	for _, col := range info.Schema {
		meta := ColumnMeta{
			Name:     col.Name,
			SQLType:  col.SQLType,
			Nullable: col.Nullable,
		}
		if cs, ok := info.ColumnStats[col.Name]; ok {
			meta.NullCount = cs.NullCount
			if !cs.Min.IsMissing() {
				meta.Min = cs.Min.String()
			}
			if !cs.Max.IsMissing() {
				meta.Max = cs.Max.String()
			}
		}
		sidecar.Columns = append(sidecar.Columns, meta)
	}

	data, err := json.MarshalIndent(&sidecar, "", "  ")
	if err != nil {
		return "", fmt.Errorf("partition: failed to marshal sidecar: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s.meta.json", info.PartitionID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("partition: failed to write sidecar: %w", err)
	}
	return path, nil
}

// ReadSidecar loads a metadata sidecar from disk.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("partition: failed to read sidecar: %w", err)
	}
	var sidecar Sidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("partition: failed to parse sidecar: %w", err)
	}
	return &sidecar, nil
}
