// internal/processor/processor.go
package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/genki-league/ratings-service/internal/models"
	"github.com/genki-league/ratings-service/internal/rating"
)

const (
	// LossCapMatchThreshold is the seasonal match count below which the loss
	// cap protects a player.
	LossCapMatchThreshold = 15
	// MaxSeasonalLoss is the largest seasonal rating drop a protected player
	// can take from a single tournament.
	MaxSeasonalLoss = 75.0
)

var (
	// ErrTournamentNotFound is returned when the tournament id resolves to nothing.
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrTournamentNotCompleted is returned when processing is triggered before
	// the tournament reaches COMPLETED.
	ErrTournamentNotCompleted = errors.New("tournament is not completed")
	// ErrAlreadyProcessed is the idempotency-gate rejection: ratings for this
	// tournament were applied once already.
	ErrAlreadyProcessed = errors.New("tournament ratings already processed")
)

// Store is the persistence surface the processor drives. *database.Store
// satisfies it; tests use an in-memory fake. GetTournament returns (nil, nil)
// for a missing tournament; bulk lookups omit players without records.
type Store interface {
	GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	GetTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)

	LoadOrInitLifetime(ctx context.Context, userID, orgID uuid.UUID, category string) (*models.LifetimeRating, error)
	LoadOrInitSeasonal(ctx context.Context, userID, orgID, seasonID uuid.UUID, category string, seed models.GlickoRating) (*models.SeasonalRating, error)
	GetLifetimeRatings(ctx context.Context, orgID uuid.UUID, category string, userIDs []uuid.UUID) (map[uuid.UUID]models.GlickoRating, error)
	GetSeasonalRatings(ctx context.Context, seasonID uuid.UUID, category string, userIDs []uuid.UUID) (map[uuid.UUID]models.GlickoRating, error)

	CommitPlayerRatings(ctx context.Context, lifetime *models.LifetimeRating, seasonal *models.SeasonalRating, history []models.RatingHistoryEntry, audit *models.TournamentRatingUpdate) error
	MarkTournamentProcessed(ctx context.Context, id uuid.UUID) (bool, error)
}

// SeasonResolver maps a tournament to its season, or to no season at all.
type SeasonResolver interface {
	ResolveSeasonForTournament(ctx context.Context, t *models.Tournament) (*models.Season, error)
}

// Processor applies one tournament's match results to both rating tracks,
// exactly once per tournament.
type Processor struct {
	store   Store
	seasons SeasonResolver

	// now is swappable for tests.
	now func() time.Time
}

// New builds a Processor.
func New(store Store, seasons SeasonResolver) *Processor {
	return &Processor{store: store, seasons: seasons, now: time.Now}
}

// Summary reports what one processing run touched.
type Summary struct {
	TournamentID     uuid.UUID  `json:"tournament_id"`
	OrgID            uuid.UUID  `json:"org_id"`
	Category         string     `json:"category"`
	SeasonID         *uuid.UUID `json:"season_id,omitempty"`
	PlayersProcessed int        `json:"players_processed"`
	MatchesProcessed int        `json:"matches_processed"`
}

// playerMatch is one match from a single player's perspective, with the
// result already oriented so the lexically smaller id holds the A role.
type playerMatch struct {
	MatchID    uuid.UUID
	OpponentID uuid.UUID
	Result     models.MatchResult
}

// ProcessTournamentRatings runs the full update for one completed tournament:
// group results by player, resolve the season, compute both Glicko-2 tracks
// per player against pre-batch opponent snapshots, apply the seasonal loss
// cap, persist per-player transactions, and flip the processed flag.
func (p *Processor) ProcessTournamentRatings(ctx context.Context, tournamentID uuid.UUID) (*Summary, error) {
	t, err := p.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
	}
	if t.Status != models.TournamentCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrTournamentNotCompleted, tournamentID, t.Status)
	}
	if t.RatingsProcessed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, tournamentID)
	}

	matches, err := p.store.GetTournamentMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	byPlayer, matchCount := groupByPlayer(matches)
	if len(byPlayer) == 0 {
		// Nothing rated; still burn the flag so a retry is a clean no-op error.
		if ok, err := p.store.MarkTournamentProcessed(ctx, tournamentID); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, tournamentID)
		}
		return &Summary{TournamentID: tournamentID, OrgID: t.OrgID, Category: t.Category}, nil
	}

	season, err := p.seasons.ResolveSeasonForTournament(ctx, t)
	if err != nil {
		return nil, err
	}

	// Pre-batch snapshots for every player in the cohort. All opponent
	// lookups use these, so updates within the batch are simultaneous.
	playerIDs := make([]uuid.UUID, 0, len(byPlayer))
	for id := range byPlayer {
		playerIDs = append(playerIDs, id)
	}
	sort.Slice(playerIDs, func(i, j int) bool {
		return playerIDs[i].String() < playerIDs[j].String()
	})

	lifetimeSnaps, err := p.store.GetLifetimeRatings(ctx, t.OrgID, t.Category, playerIDs)
	if err != nil {
		return nil, err
	}
	var seasonalSnaps map[uuid.UUID]models.GlickoRating
	if season != nil {
		seasonalSnaps, err = p.store.GetSeasonalRatings(ctx, season.ID, t.Category, playerIDs)
		if err != nil {
			return nil, err
		}
	}

	for _, playerID := range playerIDs {
		if err := p.processPlayer(ctx, t, season, playerID, byPlayer[playerID], lifetimeSnaps, seasonalSnaps); err != nil {
			return nil, fmt.Errorf("rating update for player %s: %w", playerID, err)
		}
	}

	// The flag flips last, after every per-player commit. Two concurrent
	// triggers that both passed the precondition can each commit players
	// before the loser fails this CAS; triggers are serialized per tournament
	// upstream.
	ok, err := p.store.MarkTournamentProcessed(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, tournamentID)
	}

	summary := &Summary{
		TournamentID:     tournamentID,
		OrgID:            t.OrgID,
		Category:         t.Category,
		PlayersProcessed: len(playerIDs),
		MatchesProcessed: matchCount,
	}
	if season != nil {
		summary.SeasonID = &season.ID
	}
	log.WithFields(log.Fields{
		"tournament": tournamentID,
		"players":    summary.PlayersProcessed,
		"matches":    summary.MatchesProcessed,
	}).Info("Tournament ratings processed")
	return summary, nil
}

// groupByPlayer turns reported matches into symmetric per-player entries.
// Byes and unreported matches never enter rating processing.
func groupByPlayer(matches []models.Match) (map[uuid.UUID][]playerMatch, int) {
	byPlayer := make(map[uuid.UUID][]playerMatch)
	count := 0
	for _, m := range matches {
		if m.Result == nil || m.PlayerBID == nil {
			continue
		}
		count++
		oriented := rating.OrientResult(*m.Result, m.PlayerAID, *m.PlayerBID)
		byPlayer[m.PlayerAID] = append(byPlayer[m.PlayerAID], playerMatch{
			MatchID:    m.ID,
			OpponentID: *m.PlayerBID,
			Result:     oriented,
		})
		byPlayer[*m.PlayerBID] = append(byPlayer[*m.PlayerBID], playerMatch{
			MatchID:    m.ID,
			OpponentID: m.PlayerAID,
			Result:     oriented,
		})
	}
	return byPlayer, count
}

func (p *Processor) processPlayer(ctx context.Context, t *models.Tournament, season *models.Season, playerID uuid.UUID, pms []playerMatch, lifetimeSnaps, seasonalSnaps map[uuid.UUID]models.GlickoRating) error {
	now := p.now()

	lt, err := p.store.LoadOrInitLifetime(ctx, playerID, t.OrgID, t.Category)
	if err != nil {
		return err
	}
	ltBefore := lt.GlickoRating

	inputs := make([]rating.MatchResultInput, len(pms))
	var wins, losses, draws int
	for i, pm := range pms {
		opp, ok := lifetimeSnaps[pm.OpponentID]
		if !ok {
			opp = rating.DefaultGlicko()
		}
		score := rating.ScoreForPlayer(playerID, pm.OpponentID, pm.Result)
		inputs[i] = rating.MatchResultInput{Opponent: opp, Score: score}
		switch score {
		case 1:
			wins++
		case 0.5:
			draws++
		default:
			losses++
		}
	}

	newLT, err := rating.CalculateNewRating(ltBefore, inputs)
	if err != nil {
		return err
	}

	lt.GlickoRating = newLT
	lt.TotalRatedMatches += len(pms)
	lt.MatchWins += wins
	lt.MatchLosses += losses
	lt.MatchDraws += draws
	lt.LastMatchAt = &now

	var sr *models.SeasonalRating
	var srBefore models.GlickoRating
	if season != nil {
		sr, err = p.store.LoadOrInitSeasonal(ctx, playerID, t.OrgID, season.ID, t.Category, ltBefore)
		if err != nil {
			return err
		}
		srBefore = sr.GlickoRating
		preSeasonMatches := sr.TotalRatedMatches

		seasonInputs := make([]rating.MatchResultInput, len(pms))
		for i, pm := range pms {
			opp, ok := seasonalSnaps[pm.OpponentID]
			if !ok {
				opp = rating.DefaultGlicko()
			}
			seasonInputs[i] = rating.MatchResultInput{
				Opponent: opp,
				Score:    rating.ScoreForPlayer(playerID, pm.OpponentID, pm.Result),
			}
		}

		newSR, err := rating.CalculateNewRating(srBefore, seasonInputs)
		if err != nil {
			return err
		}
		newSR.Rating = applyLossCap(srBefore.Rating, newSR.Rating, preSeasonMatches)

		sr.GlickoRating = newSR
		sr.TotalRatedMatches += len(pms)
		sr.MatchWins += wins
		sr.MatchLosses += losses
		sr.MatchDraws += draws
		sr.LastMatchAt = &now
	}

	// One history row per match. Each row carries the batch-level before and
	// after values, since Glicko-2 updates once per rating period.
	history := make([]models.RatingHistoryEntry, len(pms))
	for i, pm := range pms {
		oppBefore, ok := lifetimeSnaps[pm.OpponentID]
		if !ok {
			oppBefore = rating.DefaultGlicko()
		}
		history[i] = models.RatingHistoryEntry{
			ID:                   uuid.New(),
			UserID:               playerID,
			OrgID:                t.OrgID,
			Category:             t.Category,
			TournamentID:         t.ID,
			MatchID:              pm.MatchID,
			OpponentID:           pm.OpponentID,
			OpponentRatingBefore: oppBefore.Rating,
			Result:               pm.Result,
			RatingBefore:         ltBefore.Rating,
			RatingAfter:          lt.Rating,
			DeviationBefore:      ltBefore.RatingDeviation,
			DeviationAfter:       lt.RatingDeviation,
			VolatilityBefore:     ltBefore.Volatility,
			VolatilityAfter:      lt.Volatility,
		}
	}

	audit := p.buildAudit(t, season, playerID, ltBefore, lt, srBefore, sr, len(pms))

	return p.store.CommitPlayerRatings(ctx, lt, sr, history, audit)
}

// applyLossCap clamps a seasonal rating drop for players early in a season.
// It only ever shrinks a loss; gains and experienced players pass through.
func applyLossCap(before, after float64, preSeasonMatches int) float64 {
	if preSeasonMatches >= LossCapMatchThreshold {
		return after
	}
	if floor := before - MaxSeasonalLoss; after < floor {
		return floor
	}
	return after
}

func (p *Processor) buildAudit(t *models.Tournament, season *models.Season, playerID uuid.UUID, ltBefore models.GlickoRating, lt *models.LifetimeRating, srBefore models.GlickoRating, sr *models.SeasonalRating, matchCount int) *models.TournamentRatingUpdate {
	audit := &models.TournamentRatingUpdate{
		ID:             uuid.New(),
		UserID:         playerID,
		OrgID:          t.OrgID,
		TournamentID:   t.ID,
		Category:       t.Category,
		LifetimeBefore: ltBefore.Rating,
		LifetimeAfter:  lt.Rating,
		LifetimeDelta:  lt.Rating - ltBefore.Rating,
		MatchCount:     matchCount,
	}

	// Tier movement tracks the seasonal rating when a season applies, else
	// the lifetime rating.
	tierBasisBefore, tierBasisAfter := ltBefore.Rating, lt.Rating
	if sr != nil {
		audit.SeasonID = &season.ID
		before, after := srBefore.Rating, sr.Rating
		delta := after - before
		audit.SeasonalBefore = &before
		audit.SeasonalAfter = &after
		audit.SeasonalDelta = &delta
		tierBasisBefore, tierBasisAfter = before, after
	}

	tierBefore := rating.TierForRating(tierBasisBefore)
	tierAfter := rating.TierForRating(tierBasisAfter)
	audit.TierBefore = string(tierBefore)
	audit.TierAfter = string(tierAfter)
	audit.TierChange = string(rating.CompareTiers(tierBefore, tierAfter))
	return audit
}
