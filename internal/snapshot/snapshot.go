// Package snapshot persists warehouse pulls as a local CSV file and reads
// them back when the live query is unavailable. The header contract here is
// shared with the bq CLI output decoder.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

// Columns is the canonical header, matching the warehouse projection order.
var Columns = []string{
	"SITE",
	"CELLNAME",
	"COMPONENT",
	"ALARMTEXT",
	"ALARM_START",
	"ALARM_END",
	"ALARM_DURATION_SECONDS",
	"ALARM_DURATION_MINUTES",
	"DC",
	"BUSINESS_DATE",
	"EQUIPMENT_TYPE",
	"BLOCKING",
	"STARVING",
	"EQUIPMENT_DRIVEWAY",
}

// Store reads and writes the snapshot file.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Exists reports whether a snapshot is present on disk.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

// Age returns how old the snapshot file is. Zero when absent.
func (s *Store) Age() time.Duration {
	info, err := os.Stat(s.Path)
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// Save writes header plus rows atomically: temp file in the target
// directory, then rename. A failed write never clobbers the previous
// snapshot.
func (s *Store) Save(rows []models.RawRow) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("error creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("error replacing snapshot: %w", err)
	}
	return nil
}

// Load reads back at most maxRows rows. maxRows <= 0 means no cap.
func (s *Store) Load(maxRows int) ([]models.RawRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot: %w", err)
	}
	defer f.Close()

	rows, err := Decode(f, maxRows)
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot %s: %w", s.Path, err)
	}
	return rows, nil
}

// Encode writes the canonical header and rows as CSV.
func Encode(w io.Writer, rows []models.RawRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(fields(&rows[i])); err != nil {
			return fmt.Errorf("error writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads CSV with a header row into raw rows. Column order follows
// the header, so it tolerates both pull variants (the refresh pull omits
// ALARM_DURATION_MINUTES and older snapshots lack STARVING/driveway).
// Unknown columns are ignored; missing ones stay empty.
func Decode(r io.Reader, maxRows int) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	if _, ok := idx["CELLNAME"]; !ok {
		return nil, fmt.Errorf("header missing CELLNAME: %v", header)
	}

	var rows []models.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row: %w", err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		rows = append(rows, models.RawRow{
			Site:            get("SITE"),
			Cell:            get("CELLNAME"),
			Component:       get("COMPONENT"),
			AlarmText:       get("ALARMTEXT"),
			AlarmStart:      get("ALARM_START"),
			AlarmEnd:        get("ALARM_END"),
			DurationSeconds: get("ALARM_DURATION_SECONDS"),
			DurationMinutes: get("ALARM_DURATION_MINUTES"),
			DC:              get("DC"),
			BusinessDate:    get("BUSINESS_DATE"),
			EquipmentType:   get("EQUIPMENT_TYPE"),
			Blocking:        get("BLOCKING"),
			Starving:        get("STARVING"),
			Driveway:        get("EQUIPMENT_DRIVEWAY"),
		})
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
	}
	return rows, nil
}

func fields(r *models.RawRow) []string {
	return []string{
		r.Site,
		r.Cell,
		r.Component,
		r.AlarmText,
		r.AlarmStart,
		r.AlarmEnd,
		r.DurationSeconds,
		r.DurationMinutes,
		r.DC,
		r.BusinessDate,
		r.EquipmentType,
		r.Blocking,
		r.Starving,
		r.Driveway,
	}
}
