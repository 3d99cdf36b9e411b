package service

import (
	"fmt"
	"math"
	"slices"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

var pricingTiers = []models.Tier{
	{Name: "Weekend formule", Price: 150.00, IncludedKM: 100, Deposit: 200.00, ExtraKMRate: 0.30},
	{Name: "Midweek formule", Price: 120.00, IncludedKM: 80, Deposit: 150.00, ExtraKMRate: 0.30},
	{Name: "Week formule", Price: 450.00, IncludedKM: 300, Deposit: 400.00, ExtraKMRate: 0.25},
	{Name: "Langere-termijn formule", Price: 100.00, IncludedKM: 200, Deposit: 100.00, ExtraKMRate: 0.20},
}

// PricingCatalog returns the fixed tier list. Callers get their own copy.
func PricingCatalog() []models.Tier {
	return slices.Clone(pricingTiers)
}

// PriceQuote is a flat-rate price for a number of days.
type PriceQuote struct {
	TotalPrice float64 `json:"total_price"`
	BasePrice  float64 `json:"base_price"`
	Days       int     `json:"days"`
}

// CalculatePrice multiplies the day rate by the number of days. A basePrice of
// zero falls back to the configured default.
func CalculatePrice(days int, basePrice float64, cfg *FeatureConfig) (PriceQuote, error) {
	if basePrice == 0 {
		basePrice = cfg.Pricing.BasePrice
	}
	if basePrice < 0 {
		return PriceQuote{}, fmt.Errorf("base_price must not be negative")
	}
	if days < cfg.Rental.MinDays || days > cfg.Rental.MaxDays {
		return PriceQuote{}, fmt.Errorf("days must be between %d and %d, got %d",
			cfg.Rental.MinDays, cfg.Rental.MaxDays, days)
	}
	return PriceQuote{
		TotalPrice: roundCents(float64(days) * basePrice),
		BasePrice:  basePrice,
		Days:       days,
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
