// Package warehouse fetches raw alarm rows from the analytic data source.
//
// Two clients implement the same contract: BQCLIClient shells out to the
// bq command-line tool, PostgresClient queries a local mirror of the
// alarms table. Both make a single attempt with a bounded timeout and no
// retries; on failure the caller falls back to the snapshot.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

// Client is the upstream row source.
type Client interface {
	Fetch(ctx context.Context, q Query) ([]models.RawRow, error)
}

// Kind selects between the two pull definitions.
type Kind string

const (
	// FullPull is the dashboard-regeneration pull: lookback on
	// BUSINESS_DATE, SITE derived from the distribution-center code, cell
	// prefixed and duration converted in SQL, no sampling.
	FullPull Kind = "full"

	// RefreshPull is the scheduled pull: lookback on TIMESTAMP_START, SITE
	// from the equipment site code, and a hash-based ~25% row sample.
	//
	// The SITE derivation and sampling strategy differ from FullPull; the
	// discrepancy is inherited and kept distinct rather than unified.
	RefreshPull Kind = "refresh"
)

// Query parameterizes one pull.
type Query struct {
	Kind          Kind
	Table         string
	EquipmentType string
	LookbackDays  int
	RowCap        int
}

// SQL renders the BigQuery statement for the pull. Rows come back newest
// first, capped at RowCap.
func (q Query) SQL() string {
	var b strings.Builder
	switch q.Kind {
	case FullPull:
		fmt.Fprintf(&b, `SELECT
    DC as SITE,
    CONCAT('AIB', EQUIPMENT_CELL) as CELLNAME,
    ALARM_COMPONENT as COMPONENT,
    ALARM_TEXT as ALARMTEXT,
    TIMESTAMP_START as ALARM_START,
    TIMESTAMP_END as ALARM_END,
    ALARM_DURATION_SECONDS,
    ROUND(ALARM_DURATION_SECONDS/60, 2) as ALARM_DURATION_MINUTES,
    DC,
    BUSINESS_DATE,
    EQUIPMENT_TYPE,
    BLOCKING,
    STARVING,
    EQUIPMENT_DRIVEWAY
FROM %s
WHERE EQUIPMENT_TYPE = '%s'
  AND BUSINESS_DATE >= FORMAT_DATE('%%Y-%%m-%%d', DATE_SUB(CURRENT_DATE(), INTERVAL %d DAY))
ORDER BY TIMESTAMP_START DESC
LIMIT %d`, "`"+q.Table+"`", q.EquipmentType, q.LookbackDays, q.RowCap)
	default:
		fmt.Fprintf(&b, `SELECT
    SITE,
    EQUIPMENT_CELL as CELLNAME,
    ALARM_COMPONENT as COMPONENT,
    ALARM_TEXT as ALARMTEXT,
    TIMESTAMP_START as ALARM_START,
    TIMESTAMP_END as ALARM_END,
    ALARM_DURATION_SECONDS,
    ROUND(ALARM_DURATION_SECONDS/60, 2) as ALARM_DURATION_MINUTES,
    DC,
    BUSINESS_DATE,
    EQUIPMENT_TYPE,
    BLOCKING,
    STARVING,
    EQUIPMENT_DRIVEWAY
FROM %s
WHERE EQUIPMENT_TYPE = '%s'
  AND TIMESTAMP_START >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL %d DAY)
  AND MOD(ABS(FARM_FINGERPRINT(CAST(TIMESTAMP_START AS STRING))), 4) = 0
ORDER BY TIMESTAMP_START DESC
LIMIT %d`, "`"+q.Table+"`", q.EquipmentType, q.LookbackDays, q.RowCap)
	}
	return b.String()
}
