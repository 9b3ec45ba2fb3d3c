package models

import (
	"time"

	"github.com/google/uuid"
)

// SeasonStatus is the lifecycle state of a competitive season.
type SeasonStatus string

const (
	SeasonUpcoming  SeasonStatus = "UPCOMING"
	SeasonActive    SeasonStatus = "ACTIVE"
	SeasonCompleted SeasonStatus = "COMPLETED"
)

// Season is one competitive season for an organization. At most one season
// per org may be ACTIVE at a time, and date ranges within an org never overlap.
type Season struct {
	ID        uuid.UUID    `json:"id"`
	OrgID     uuid.UUID    `json:"org_id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    SeasonStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Contains reports whether t falls inside the season's half-open date range:
// the start instant is in, the end instant is not. The end instant belongs to
// whatever season starts there.
func (s *Season) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && t.Before(s.EndDate)
}
