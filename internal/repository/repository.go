package repository

import (
	"context"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

// AlarmClass narrows the archive to one boolean classification.
type AlarmClass string

const (
	ClassAll      AlarmClass = "ALL"
	ClassBlocking AlarmClass = "BLOCKING"
	ClassStarving AlarmClass = "STARVING"
)

// Filter narrows List results. Zero values mean "no predicate"; the ALL
// sentinel on Sites/Cells is handled upstream by the engine, the repository
// only sees concrete membership sets.
type Filter struct {
	Week      string
	Sites     []string
	Cells     []string
	Class     AlarmClass
	StartDate string // inclusive, "2006-01-02" on the date part of alarm_start
	EndDate   string // inclusive
	Limit     int
	Offset    int
}

// IncidentRepository is the local archive of normalized incidents. Each
// refresh replaces the whole archive so the store always reflects exactly
// one pull.
type IncidentRepository interface {
	Replace(ctx context.Context, incidents []models.Incident) error
	List(ctx context.Context, opts Filter) ([]models.Incident, error)
	Count(ctx context.Context) (int, error)
}
