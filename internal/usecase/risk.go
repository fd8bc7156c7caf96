package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0

	// maxTravelSpeedKmh bounds plausible travel between two logins. A
	// measured speed above it within the impossible-travel window flags the
	// login.
	maxTravelSpeedKmh = 1000.0

	impossibleTravelWindow = 12 * time.Hour
	countryChangeWindow    = 6 * time.Hour
)

// RiskEvaluator classifies a successful verification against the user's
// last known login. It is a pure decision procedure; all inputs arrive as
// arguments and nothing here touches a store or the clock.
type RiskEvaluator struct{}

// NewRiskEvaluator constructs the evaluator.
func NewRiskEvaluator() *RiskEvaluator {
	return &RiskEvaluator{}
}

// Evaluate computes the verdict for a login. previous is nil for a
// first-ever login. Unknown or development locations on either side skip
// the geographic comparison entirely, so a resolver outage can never flag
// anyone.
func (e *RiskEvaluator) Evaluate(current domain.Location, currentIP string, previous *domain.Location, previousIP string, elapsed time.Duration) domain.RiskVerdict {
	if previous == nil || previous.IsUnknown() || current.IsUnknown() {
		return domain.SafeVerdict()
	}

	verdict := domain.SafeVerdict()
	elapsedHours := elapsed.Hours()

	// Country match short-circuits the location factor so coordinate noise
	// inside one country never flags a login. On a country change the
	// impossible-travel check runs first when coordinates exist; if it does
	// not fire, the six-hour country-change check still applies.
	if previous.Country != current.Country {
		flagged := false

		if previous.HasCoordinates() && current.HasCoordinates() {
			distance := haversineKm(*previous.Latitude, *previous.Longitude, *current.Latitude, *current.Longitude)
			maxPossible := elapsedHours * maxTravelSpeedKmh

			if distance > maxPossible && elapsed < impossibleTravelWindow {
				flagged = true
				verdict.Status = domain.LoginStatusSuspicious
				verdict.Factors = append(verdict.Factors, domain.RiskFactor{
					Factor: domain.RiskFactorLocationChange,
					Score:  domain.LocationChangeScore,
					Description: fmt.Sprintf(
						"Impossible travel: %.0f km in %.1f hours implies %.0f km/h",
						distance, elapsedHours, impliedSpeed(distance, elapsedHours),
					),
				})
			}
		}

		if !flagged && elapsed < countryChangeWindow {
			verdict.Status = domain.LoginStatusSuspicious
			verdict.Factors = append(verdict.Factors, domain.RiskFactor{
				Factor: domain.RiskFactorLocationChange,
				Score:  domain.LocationChangeScore,
				Description: fmt.Sprintf(
					"Country changed from %s to %s within %.1f hours",
					previous.Country, current.Country, elapsedHours,
				),
			})
		}
	}

	// The new-IP signal is additive on top of the location factor and never
	// escalates the status on its own.
	if previousIP != "" && previousIP != currentIP {
		verdict.Factors = append(verdict.Factors, domain.RiskFactor{
			Factor:      domain.RiskFactorNewIP,
			Score:       domain.NewIPScore,
			Description: "Login from a previously unseen IP address",
		})
	}

	for _, factor := range verdict.Factors {
		verdict.Score += factor.Score
	}

	return verdict
}

// haversineKm returns the great-circle distance between two points using
// the mean Earth radius.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func impliedSpeed(distanceKm, hours float64) float64 {
	if hours <= 0 {
		return math.Inf(1)
	}
	return distanceKm / hours
}
