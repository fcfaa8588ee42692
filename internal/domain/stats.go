package domain

// Stats is the read-only aggregate view over an org's claims. Counts are
// computed from persisted state at query time; staleness from caching is
// bounded, never unbounded.
type Stats struct {
	TotalClaims        int            `json:"totalClaims"`
	ByBand             map[string]int `json:"byBand"`
	ByStatus           map[string]int `json:"byStatus"`
	DecisionsThisMonth int            `json:"decisionsThisMonth"`
	ClaimsLast24h      int            `json:"claimsLast24h"`
	MeanFraudScore     float64        `json:"meanFraudScore"` // over scored claims only
	TotalClaimedGBP    float64        `json:"totalClaimedGbp"`
}
