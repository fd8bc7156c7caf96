package domain

// Risk factor names and weights. The weights are additive; location factors
// escalate the status, the new-IP factor never does on its own.
const (
	RiskFactorLocationChange = "location_change"
	RiskFactorNewIP          = "new_ip"

	LocationChangeScore = 50
	NewIPScore          = 20
)

// RiskVerdict is the outcome of evaluating one successful verification
// against the user's login history. Score is the raw additive sum of the
// factor contributions and may exceed 100; the audit schema clamps it at
// persistence time.
type RiskVerdict struct {
	Status  LoginStatus  `json:"status"`
	Score   int          `json:"risk_score"`
	Factors []RiskFactor `json:"risk_factors"`
}

// SafeVerdict is the zero-risk verdict used when there is nothing to compare
// against.
func SafeVerdict() RiskVerdict {
	return RiskVerdict{Status: LoginStatusSafe}
}
