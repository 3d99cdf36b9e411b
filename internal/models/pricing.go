package models

// Tier is a named pricing package.
type Tier struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IncludedKM  int     `json:"included_km"`
	Deposit     float64 `json:"deposit"`
	ExtraKMRate float64 `json:"extra_km_rate"`
}
