package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS incidents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site TEXT NOT NULL,
			cell TEXT NOT NULL,
			component TEXT,
			alarm_text TEXT,
			alarm_start DATETIME,
			duration_mins REAL NOT NULL DEFAULT 0,
			wm_week TEXT,
			blocking INTEGER NOT NULL DEFAULT 0,
			starving INTEGER NOT NULL DEFAULT 0,
			driveway TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_incidents_alarm_start ON incidents(alarm_start);
		CREATE INDEX IF NOT EXISTS idx_incidents_cell ON incidents(cell);
		CREATE INDEX IF NOT EXISTS idx_incidents_wm_week ON incidents(wm_week);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Replace swaps the archive contents for the given incidents in a single
// transaction, so readers never observe a half-written refresh.
func (s *SQLiteDB) Replace(ctx context.Context, incidents []models.Incident) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM incidents`); err != nil {
		return fmt.Errorf("error clearing incidents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO incidents (site, cell, component, alarm_text, alarm_start,
			duration_mins, wm_week, blocking, starving, driveway)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range incidents {
		inc := &incidents[i]
		var start any
		if inc.AlarmStart != nil {
			start = inc.AlarmStart.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, inc.Site, inc.Cell, inc.Component,
			inc.AlarmText, start, inc.DurationMins, nullable(inc.WMWeek),
			boolInt(inc.Blocking), boolInt(inc.Starving), inc.Driveway); err != nil {
			return fmt.Errorf("error inserting incident: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.Incident, error) {
	query := `SELECT site, cell, component, alarm_text, alarm_start,
		duration_mins, wm_week, blocking, starving, driveway FROM incidents`

	var conds []string
	var args []any

	if opts.Week != "" {
		conds = append(conds, "wm_week = ?")
		args = append(args, opts.Week)
	}
	if len(opts.Sites) > 0 {
		conds = append(conds, "site IN ("+placeholders(len(opts.Sites))+")")
		for _, v := range opts.Sites {
			args = append(args, v)
		}
	}
	if len(opts.Cells) > 0 {
		conds = append(conds, "cell IN ("+placeholders(len(opts.Cells))+")")
		for _, v := range opts.Cells {
			args = append(args, v)
		}
	}
	switch opts.Class {
	case ClassBlocking:
		conds = append(conds, "blocking = 1")
	case ClassStarving:
		conds = append(conds, "starving = 1")
	}
	if opts.StartDate != "" {
		conds = append(conds, "date(alarm_start) >= ?")
		args = append(args, opts.StartDate)
	}
	if opts.EndDate != "" {
		conds = append(conds, "date(alarm_start) <= ?")
		args = append(args, opts.EndDate)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY alarm_start DESC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying incidents: %w", err)
	}
	defer rows.Close()

	var out []models.Incident
	for rows.Next() {
		var inc models.Incident
		var start, week sql.NullString
		var blocking, starving int
		if err := rows.Scan(&inc.Site, &inc.Cell, &inc.Component, &inc.AlarmText,
			&start, &inc.DurationMins, &week, &blocking, &starving, &inc.Driveway); err != nil {
			return nil, fmt.Errorf("error scanning incident: %w", err)
		}
		if start.Valid {
			if t, err := time.Parse(time.RFC3339, start.String); err == nil {
				t = t.UTC()
				inc.AlarmStart = &t
			}
		}
		inc.WMWeek = week.String
		inc.Blocking = blocking != 0
		inc.Starving = starving != 0
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting incidents: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
