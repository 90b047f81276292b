package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

// PostgresClient queries a Postgres mirror of the alarms table, for
// deployments where the warehouse is replicated locally. Same single-attempt
// contract as the bq client.
type PostgresClient struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresClient(dsn string, timeout time.Duration) (*PostgresClient, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres mirror: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging postgres mirror: %w", err)
	}
	return &PostgresClient{db: db, timeout: timeout}, nil
}

func (c *PostgresClient) Close() error {
	return c.db.Close()
}

func (c *PostgresClient) Fetch(ctx context.Context, q Query) ([]models.RawRow, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("running warehouse query", "driver", "postgres", "kind", q.Kind, "lookback_days", q.LookbackDays)

	rows, err := c.db.QueryContext(ctx, c.sql(q), q.EquipmentType, q.LookbackDays, q.RowCap)
	if err != nil {
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}
	defer rows.Close()

	var out []models.RawRow
	for rows.Next() {
		var r models.RawRow
		var alarmStart, alarmEnd sql.NullTime
		var durationSecs sql.NullFloat64
		var site, cell, component, text sql.NullString
		var dc, businessDate, equip, driveway sql.NullString
		var blocking, starving sql.NullBool
		if err := rows.Scan(&site, &cell, &component, &text, &alarmStart, &alarmEnd,
			&durationSecs, &dc, &businessDate, &equip, &blocking, &starving, &driveway); err != nil {
			return nil, fmt.Errorf("error scanning alarm row: %w", err)
		}
		r.Site = site.String
		r.Cell = cell.String
		r.Component = component.String
		r.AlarmText = text.String
		if alarmStart.Valid {
			r.AlarmStart = alarmStart.Time.UTC().Format(time.RFC3339)
		}
		if alarmEnd.Valid {
			r.AlarmEnd = alarmEnd.Time.UTC().Format(time.RFC3339)
		}
		if durationSecs.Valid {
			r.DurationSeconds = fmt.Sprintf("%g", durationSecs.Float64)
			r.DurationMinutes = fmt.Sprintf("%.2f", durationSecs.Float64/60)
		}
		r.DC = dc.String
		r.BusinessDate = businessDate.String
		r.EquipmentType = equip.String
		if blocking.Valid && blocking.Bool {
			r.Blocking = "true"
		}
		if starving.Valid && starving.Bool {
			r.Starving = "true"
		}
		r.Driveway = driveway.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarm rows: %w", err)
	}

	slog.Info("warehouse query complete", "driver", "postgres", "kind", q.Kind, "rows", len(out), "elapsed", time.Since(start))
	return out, nil
}

// sql renders the mirror-table statement for the pull. The two pull
// definitions keep their distinct SITE derivations and sampling, mirroring
// the BigQuery statements (hashtext stands in for FARM_FINGERPRINT).
func (c *PostgresClient) sql(q Query) string {
	table := q.Table
	if table == "" {
		table = "symbotic_alarms"
	}
	switch q.Kind {
	case FullPull:
		return fmt.Sprintf(`
SELECT dc, 'AIB' || equipment_cell, alarm_component, alarm_text,
       timestamp_start, timestamp_end, alarm_duration_seconds,
       dc, business_date, equipment_type, blocking, starving, equipment_driveway
FROM %s
WHERE equipment_type = $1
  AND business_date >= to_char(CURRENT_DATE - make_interval(days => $2), 'YYYY-MM-DD')
ORDER BY timestamp_start DESC
LIMIT $3`, table)
	default:
		return fmt.Sprintf(`
SELECT site, equipment_cell, alarm_component, alarm_text,
       timestamp_start, timestamp_end, alarm_duration_seconds,
       dc, business_date, equipment_type, blocking, starving, equipment_driveway
FROM %s
WHERE equipment_type = $1
  AND timestamp_start >= now() - make_interval(days => $2)
  AND mod(abs(hashtext(timestamp_start::text)), 4) = 0
ORDER BY timestamp_start DESC
LIMIT $3`, table)
	}
}
