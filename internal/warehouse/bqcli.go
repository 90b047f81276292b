package warehouse

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/snapshot"
)

// BQCLIClient runs queries through the bq command-line tool and parses its
// CSV output. Query execution itself is opaque to us; the CLI owns auth and
// transport.
type BQCLIClient struct {
	// Binary defaults to "bq"; overridable for tests.
	Binary  string
	Timeout time.Duration
}

func NewBQCLIClient(timeout time.Duration) *BQCLIClient {
	return &BQCLIClient{Binary: "bq", Timeout: timeout}
}

func (c *BQCLIClient) Fetch(ctx context.Context, q Query) ([]models.RawRow, error) {
	bin := c.Binary
	if bin == "" {
		bin = "bq"
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{
		"query",
		"--use_legacy_sql=false",
		"--format=csv",
		"--max_rows=" + strconv.Itoa(q.RowCap),
		q.SQL(),
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	slog.Info("running warehouse query", "driver", "bq", "kind", q.Kind, "lookback_days", q.LookbackDays)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("bq query timed out after %s", c.Timeout)
		}
		return nil, fmt.Errorf("bq query failed: %w: %s", err, firstLine(stderr.String()))
	}

	rows, err := snapshot.Decode(&stdout, q.RowCap)
	if err != nil {
		return nil, fmt.Errorf("error parsing bq output: %w", err)
	}

	slog.Info("warehouse query complete", "driver", "bq", "kind", q.Kind, "rows", len(rows), "elapsed", time.Since(start))
	return rows, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
