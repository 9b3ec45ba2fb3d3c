// internal/rating/glicko2.go
package rating

import (
	"errors"
	"math"

	"github.com/genki-league/ratings-service/internal/models"
)

const (
	// GlickoScale is the multiplier used for converting between the public
	// 1500-centered scale and Glicko2's internal mu/phi scale.
	GlickoScale = 173.7178
	// DefaultRating is the baseline rating for a never-rated player.
	DefaultRating = 1500.0
	// DefaultRD is the baseline rating deviation for a never-rated player.
	DefaultRD = 350.0
	// DefaultVolatility is the baseline volatility for a never-rated player.
	DefaultVolatility = 0.06
	// MinRD is the floor applied to rating deviation after an update.
	MinRD = 50.0
	// Tau is the constraint on volatility changes.
	Tau = 0.5
	// Epsilon is the tolerance used in iteration stopping conditions.
	Epsilon = 0.000001
	// MaxIterations caps the volatility root-find against pathological input.
	MaxIterations = 100
)

// ErrNonConvergence is returned when the volatility root-find fails to narrow
// its bracket within MaxIterations. It indicates corrupt numeric input and is
// not retried.
var ErrNonConvergence = errors.New("glicko2 volatility iteration did not converge")

// DefaultGlicko returns the rating triple assigned to a never-rated player.
func DefaultGlicko() models.GlickoRating {
	return models.GlickoRating{
		Rating:          DefaultRating,
		RatingDeviation: DefaultRD,
		Volatility:      DefaultVolatility,
	}
}

// Glicko2Rating holds the transformed rating (Mu), rating deviation (Phi),
// and volatility (Sigma) for a single player in Glicko2 space.
type Glicko2Rating struct {
	Mu    float64
	Phi   float64
	Sigma float64
}

// ToGlicko2 converts a public-scale triple into Glicko2 space.
func ToGlicko2(r models.GlickoRating) Glicko2Rating {
	return Glicko2Rating{
		Mu:    (r.Rating - DefaultRating) / GlickoScale,
		Phi:   r.RatingDeviation / GlickoScale,
		Sigma: r.Volatility,
	}
}

// FromGlicko2 converts back to the public 1500-centered scale.
func FromGlicko2(r Glicko2Rating) models.GlickoRating {
	return models.GlickoRating{
		Rating:          r.Mu*GlickoScale + DefaultRating,
		RatingDeviation: r.Phi * GlickoScale,
		Volatility:      r.Sigma,
	}
}

// MatchResultInput is one match from the player's perspective: the opponent's
// rating triple as it stood before the batch, and the player's score in
// {0, 0.5, 1}.
type MatchResultInput struct {
	Opponent models.GlickoRating
	Score    float64
}

// CalculateNewRating applies one Glicko-2 rating period to current, given the
// player's matches in the batch. With zero matches only the deviation inflates
// (uncertainty growth from inactivity); rating and volatility are unchanged.
// The returned deviation is floored at MinRD after conversion back to the
// public scale.
func CalculateNewRating(current models.GlickoRating, matches []MatchResultInput) (models.GlickoRating, error) {
	r := ToGlicko2(current)

	if len(matches) == 0 {
		r.Phi = math.Sqrt(r.Phi*r.Phi + r.Sigma*r.Sigma)
		return clampRD(FromGlicko2(r)), nil
	}

	// Estimated variance of the rating from game outcomes alone. The expected
	// score here is evaluated at mu=0 per the reference update.
	var varianceSum float64
	for _, m := range matches {
		opp := ToGlicko2(m.Opponent)
		gVal := g(opp.Phi)
		EVal := E(0, opp.Mu, opp.Phi)
		varianceSum += gVal * gVal * EVal * (1 - EVal)
	}
	v := 1.0 / varianceSum

	var improvementSum float64
	for _, m := range matches {
		opp := ToGlicko2(m.Opponent)
		improvementSum += g(opp.Phi) * (m.Score - E(r.Mu, opp.Mu, opp.Phi))
	}
	delta := v * improvementSum

	newSigma, err := SolveVolatility(v, delta, r.Phi, r.Sigma, Tau, Epsilon, MaxIterations)
	if err != nil {
		return models.GlickoRating{}, err
	}

	phiStar := math.Sqrt(r.Phi*r.Phi + newSigma*newSigma)
	phiPrime := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muPrime := r.Mu + phiPrime*phiPrime*improvementSum

	return clampRD(FromGlicko2(Glicko2Rating{
		Mu:    muPrime,
		Phi:   phiPrime,
		Sigma: newSigma,
	})), nil
}

// SolveVolatility finds the new volatility via the Illinois-variant
// secant/bisection hybrid on the Glicko-2 volatility function. It is a pure
// function of its inputs and returns ErrNonConvergence if the bracket fails
// to narrow within maxIterations.
func SolveVolatility(v, delta, phi, sigma, tau, epsilon float64, maxIterations int) (float64, error) {
	a := math.Log(sigma * sigma)
	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau, phi, v, delta, a, tau) < 0 {
			k++
		}
		B = a - k*tau
	}

	fA := f(A, phi, v, delta, a, tau)
	fB := f(B, phi, v, delta, a, tau)

	for i := 0; i < maxIterations; i++ {
		if math.Abs(B-A) <= epsilon {
			return math.Exp(A / 2), nil
		}
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C, phi, v, delta, a, tau)
		if fC*fB <= 0 {
			A = B
			fA = fB
		} else {
			fA = fA / 2
		}
		B = C
		fB = fC
	}
	if math.Abs(B-A) <= epsilon {
		return math.Exp(A / 2), nil
	}
	return 0, ErrNonConvergence
}

// g is the G(phi) factor from Glicko2, 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/math.Pi/math.Pi)
}

// E is the expected score in Glicko2 space, E(mu,mu2,phi2)=1/(1+exp[-g(phi2)*(mu-mu2)]).
func E(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

// f is the Glicko2 volatility root-finding function.
func f(x, phi, v, delta, a, tau float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return (num / den) - ((x - a) / (tau * tau))
}

// clampRD floors the public-scale deviation at MinRD. The floor is applied
// after the update, never mid-algorithm.
func clampRD(r models.GlickoRating) models.GlickoRating {
	if r.RatingDeviation < MinRD {
		r.RatingDeviation = MinRD
	}
	return r
}
