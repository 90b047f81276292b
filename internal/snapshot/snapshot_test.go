package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

func sampleRows() []models.RawRow {
	return []models.RawRow{
		{
			Site: "DC6094", Cell: "AIB101", Component: "motor",
			AlarmText: "jam detected, lane 3", AlarmStart: "2025-04-01 08:00:00",
			DurationSeconds: "600", DurationMinutes: "10", DC: "6094",
			BusinessDate: "2025-04-01", EquipmentType: "AIB",
			Blocking: "true", Starving: "false", Driveway: "D1",
		},
		{
			Site: "DC7067", Cell: "AIB202", Component: "belt",
			AlarmText: `text with "quotes" and
a newline`, DurationSeconds: "90",
		},
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "snap.csv"))

	if store.Exists() {
		t.Fatal("expected no snapshot before save")
	}

	rows := sampleRows()
	if err := store.Save(rows); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exists() {
		t.Fatal("expected snapshot after save")
	}

	got, err := store.Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d mismatch:\n got %+v\nwant %+v", i, got[i], rows[i])
		}
	}
}

func TestStore_LoadRowCap(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "snap.csv"))
	var rows []models.RawRow
	for i := 0; i < 10; i++ {
		rows = append(rows, models.RawRow{Cell: "AIB1"})
	}
	if err := store.Save(rows); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(4)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 rows with cap, got %d", len(got))
	}
}

func TestDecode_HeaderOrderIndependent(t *testing.T) {
	// Column order shuffled relative to the canonical header.
	csv := "CELLNAME,SITE,BLOCKING,ALARMTEXT\nAIB101,DC6094,true,jam\n"
	rows, err := Decode(strings.NewReader(csv), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Cell != "AIB101" || r.Site != "DC6094" || r.Blocking != "true" || r.AlarmText != "jam" {
		t.Errorf("unexpected row: %+v", r)
	}
	// Missing columns stay empty.
	if r.DurationMinutes != "" || r.Starving != "" {
		t.Errorf("expected missing columns empty, got %+v", r)
	}
}

func TestDecode_RefreshPullVariant(t *testing.T) {
	// The sampled pull omits ALARM_DURATION_MINUTES.
	csv := "SITE,CELLNAME,COMPONENT,ALARMTEXT,ALARM_START,ALARM_DURATION_SECONDS,BLOCKING,STARVING\n" +
		"DC6094,AIB101,motor,jam,2025-04-01 08:00:00,120,false,true\n"
	rows, err := Decode(strings.NewReader(csv), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rows[0].DurationSeconds != "120" || rows[0].DurationMinutes != "" {
		t.Errorf("unexpected durations: %+v", rows[0])
	}
}

func TestDecode_MissingCellColumn(t *testing.T) {
	csv := "SITE,COMPONENT\nDC6094,motor\n"
	if _, err := Decode(strings.NewReader(csv), 0); err == nil {
		t.Error("expected error for header without CELLNAME")
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode(strings.NewReader(""), 0); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestStore_SaveAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "snap.csv"))

	if err := store.Save(sampleRows()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(sampleRows()[:1]); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "snap.csv" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only snap.csv, got %v", names)
	}

	rows, err := store.Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected the replacing snapshot's single row, got %d", len(rows))
	}
}

func TestStore_AgeAbsent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.csv"))
	if age := store.Age(); age != 0 {
		t.Errorf("expected zero age for missing file, got %v", age)
	}
}
