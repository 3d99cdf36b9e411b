package service

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

// PricingConfig holds the tariffs shown on the calendar page.
type PricingConfig struct {
	BasePrice         float64 `toml:"base_price" json:"base_price"`
	ExtraKMTariff     float64 `toml:"extra_km_tariff" json:"extra_km_tariff"`
	DepositPercentage int     `toml:"deposit_percentage" json:"deposit_percentage"`
	PrepaymentType    string  `toml:"prepayment_type" json:"prepayment_type"` // "huur_borg" or "huur_alleen"
	DefaultDeposit    float64 `toml:"default_deposit" json:"default_deposit"`
}

// RentalRules bounds what a customer may request.
type RentalRules struct {
	MinDays      int      `toml:"min_days" json:"min_days"`
	MaxDays      int      `toml:"max_days" json:"max_days"`
	ReservedDays []string `toml:"reserved_days" json:"reserved_days"`
}

// CalendarDisplay configures the FullCalendar widget.
type CalendarDisplay struct {
	Height      string `toml:"height" json:"height"`
	Width       string `toml:"width" json:"width"`
	DefaultView string `toml:"default_view" json:"default_view"`
}

// FeatureConfig holds user-facing rental settings.
// Source: TOML configuration file, layered over DefaultFeatureConfig.
type FeatureConfig struct {
	Pricing  PricingConfig   `toml:"pricing" json:"pricing"`
	Rental   RentalRules     `toml:"rental" json:"rental"`
	Calendar CalendarDisplay `toml:"calendar" json:"calendar"`
}

// DefaultFeatureConfig returns the settings used when no file is present.
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		Pricing: PricingConfig{
			BasePrice:         100.00,
			ExtraKMTariff:     0.30,
			DepositPercentage: 30,
			PrepaymentType:    "huur_borg",
			DefaultDeposit:    100.00,
		},
		Rental: RentalRules{
			MinDays:      1,
			MaxDays:      30,
			ReservedDays: []string{"2025-12-25", "2025-12-26"},
		},
		Calendar: CalendarDisplay{
			Height:      "700px",
			Width:       "100%",
			DefaultView: "dayGridMonth",
		},
	}
}

// LoadFeatureConfig loads feature configuration from a TOML file.
// Keys missing from the file keep their default values.
func LoadFeatureConfig(path string) (*FeatureConfig, error) {
	cfg := DefaultFeatureConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load feature config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *FeatureConfig) Validate() error {
	if c.Pricing.BasePrice <= 0 {
		return fmt.Errorf("pricing.base_price must be positive")
	}
	if c.Pricing.DepositPercentage < 0 || c.Pricing.DepositPercentage > 100 {
		return fmt.Errorf("pricing.deposit_percentage must be between 0 and 100")
	}
	switch c.Pricing.PrepaymentType {
	case "huur_borg", "huur_alleen":
	default:
		return fmt.Errorf("pricing.prepayment_type must be huur_borg or huur_alleen, got %q", c.Pricing.PrepaymentType)
	}
	if c.Rental.MinDays < 1 {
		return fmt.Errorf("rental.min_days must be at least 1")
	}
	if c.Rental.MaxDays < c.Rental.MinDays {
		return fmt.Errorf("rental.max_days must be >= rental.min_days")
	}
	for _, d := range c.Rental.ReservedDays {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return fmt.Errorf("rental.reserved_days: invalid date %q", d)
		}
	}
	return nil
}
