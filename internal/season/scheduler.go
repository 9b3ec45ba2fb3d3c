// internal/season/scheduler.go
package season

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/models"
)

// StartStatusScheduler runs a periodic job that walks seasons across their
// date boundaries: UPCOMING seasons whose window has opened become ACTIVE
// (with seasonal ratings seeded), and ACTIVE seasons past their end date
// become COMPLETED. Returns the scheduler so the caller can shut it down.
func (m *Manager) StartStatusScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			m.RunStatusTransitions(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

// RunStatusTransitions performs one pass of date-driven season transitions.
// Completions run before activations so a season ending exactly when its
// successor begins hands over in a single pass. Errors are logged and skipped
// so one bad row never wedges the scheduler.
func (m *Manager) RunStatusTransitions(ctx context.Context) {
	now := m.now()

	active, err := m.store.ListSeasonsByStatus(ctx, models.SeasonActive)
	if err != nil {
		log.Errorf("season scheduler: list active: %v", err)
	}
	for _, se := range active {
		if se.EndDate.After(now) {
			continue
		}
		if _, err := m.UpdateSeasonStatus(ctx, se.ID, models.SeasonCompleted); err != nil {
			log.WithFields(log.Fields{"season": se.Name, "org": se.OrgID}).
				Errorf("season scheduler: complete failed: %v", err)
			continue
		}
		log.WithFields(log.Fields{"season": se.Name, "org": se.OrgID}).Info("Season completed")
	}

	upcoming, err := m.store.ListSeasonsByStatus(ctx, models.SeasonUpcoming)
	if err != nil {
		log.Errorf("season scheduler: list upcoming: %v", err)
	}
	for _, se := range upcoming {
		if !se.Contains(now) {
			continue
		}
		if _, err := m.UpdateSeasonStatus(ctx, se.ID, models.SeasonActive); err != nil {
			log.WithFields(log.Fields{"season": se.Name, "org": se.OrgID}).
				Errorf("season scheduler: activate failed: %v", err)
			continue
		}
		log.WithFields(log.Fields{"season": se.Name, "org": se.OrgID}).Info("Season activated")
	}
}
