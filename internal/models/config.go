package models

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BaseCycleHours        = 4.0
	MaxPlots              = 3
	MaxGreenhouseUpgrade  = 9
	MaxUniqueCrops        = 12
	MaxFortune            = 4000
	DefaultFortune        = 2500
	DefaultMutationChance = 0.25
	// SetupLifespanHours is how long a non-destructive layout keeps producing
	SetupLifespanHours = 120.0

	greenhouseReduction = 0.25
	uniqueCropReduction = 0.30
	baseDropMultiplier  = 2.16 * 1.3
)

// PlayerConfig describes the player's upgrades and ranking preferences
type PlayerConfig struct {
	Plots             int       `yaml:"plots" json:"plots"`
	Fortune           float64   `yaml:"fortune" json:"fortune"`
	GreenhouseUpgrade int       `yaml:"gh_upgrade" json:"gh_upgrade"`
	UniqueCrops       int       `yaml:"unique_crops" json:"unique_crops"`
	Mode              ScoreMode `yaml:"mode" json:"mode"`
	SetupMode         SetupMode `yaml:"setup_mode" json:"setup_mode"`
	SellMode          SellMode  `yaml:"sell_mode" json:"sell_mode"`
	TargetCrop        string    `yaml:"target_crop,omitempty" json:"target_crop,omitempty"`
	MaxedCrops        []string  `yaml:"maxed_crops,omitempty" json:"maxed_crops,omitempty"`
	MutationChance    float64   `yaml:"mutation_chance" json:"mutation_chance"`

	// Market boost window; zero hours disables it
	BatchIntervalHours float64  `yaml:"batch_interval_hours,omitempty" json:"batch_interval_hours,omitempty"`
	BoostCost          float64  `yaml:"boost_cost,omitempty" json:"boost_cost,omitempty"`
	BoostedMutPrice    *float64 `yaml:"boosted_mut_price,omitempty" json:"boosted_mut_price,omitempty"`
}

// DefaultPlayerConfig returns a maxed-out three plot player
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Plots:             MaxPlots,
		Fortune:           DefaultFortune,
		GreenhouseUpgrade: MaxGreenhouseUpgrade,
		UniqueCrops:       MaxUniqueCrops,
		Mode:              ModeProfit,
		SetupMode:         SetupBuyOrder,
		SellMode:          SellOffer,
		MutationChance:    DefaultMutationChance,
	}
}

// LoadPlayerConfig reads a YAML (or JSON) player file on top of the defaults
func LoadPlayerConfig(path string) (PlayerConfig, error) {
	cfg := DefaultPlayerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read player config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse player config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize fills empty modes and sanitises fortune
func (c *PlayerConfig) Normalize() {
	if c.Mode == "" {
		c.Mode = ModeProfit
	}
	if c.SetupMode == "" {
		c.SetupMode = SetupBuyOrder
	}
	if c.SellMode == "" {
		c.SellMode = SellOffer
	}
	if math.IsNaN(c.Fortune) || c.Fortune < 0 {
		c.Fortune = 0
	}
	c.Fortune = math.Round(math.Min(c.Fortune, MaxFortune))
	c.TargetCrop = strings.TrimSpace(c.TargetCrop)
}

// Validate checks ranges and enum values
func (c PlayerConfig) Validate() error {
	if c.Plots < 1 || c.Plots > MaxPlots {
		return fmt.Errorf("%w: plots must be between 1 and %d, got %d", ErrInvalidConfig, MaxPlots, c.Plots)
	}
	if c.Fortune < 0 || math.IsNaN(c.Fortune) || math.IsInf(c.Fortune, 0) {
		return fmt.Errorf("%w: fortune must be >= 0", ErrInvalidConfig)
	}
	if c.GreenhouseUpgrade < 0 || c.GreenhouseUpgrade > MaxGreenhouseUpgrade {
		return fmt.Errorf("%w: gh_upgrade must be between 0 and %d, got %d", ErrInvalidConfig, MaxGreenhouseUpgrade, c.GreenhouseUpgrade)
	}
	if c.UniqueCrops < 0 || c.UniqueCrops > MaxUniqueCrops {
		return fmt.Errorf("%w: unique_crops must be between 0 and %d, got %d", ErrInvalidConfig, MaxUniqueCrops, c.UniqueCrops)
	}

	switch c.Mode {
	case ModeProfit, ModeSmart, ModeSetup:
	case ModeTarget:
		if c.TargetCrop == "" {
			return fmt.Errorf("%w: target mode needs target_crop", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.SetupMode != SetupBuyOrder && c.SetupMode != SetupInstaBuy {
		return fmt.Errorf("%w: unknown setup_mode %q", ErrInvalidConfig, c.SetupMode)
	}
	if c.SellMode != SellOffer && c.SellMode != SellInsta {
		return fmt.Errorf("%w: unknown sell_mode %q", ErrInvalidConfig, c.SellMode)
	}

	if math.IsNaN(c.MutationChance) || c.MutationChance < 0 || c.MutationChance > 1 {
		return fmt.Errorf("%w: mutation_chance must be in [0, 1]", ErrInvalidConfig)
	}
	if c.BatchIntervalHours < 0 || math.IsNaN(c.BatchIntervalHours) {
		return fmt.Errorf("%w: batch_interval_hours must be >= 0", ErrInvalidConfig)
	}
	if c.BoostCost < 0 || math.IsNaN(c.BoostCost) {
		return fmt.Errorf("%w: boost_cost must be >= 0", ErrInvalidConfig)
	}
	if c.BoostedMutPrice != nil && (*c.BoostedMutPrice < 0 || math.IsNaN(*c.BoostedMutPrice)) {
		return fmt.Errorf("%w: boosted_mut_price must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// CycleTimeHours returns the duration of one growth cycle.
// Greenhouse upgrades remove up to 25% and unique crops up to 30%.
func (c PlayerConfig) CycleTimeHours() float64 {
	gh := float64(c.GreenhouseUpgrade) / MaxGreenhouseUpgrade * greenhouseReduction
	unique := float64(c.UniqueCrops) / MaxUniqueCrops * uniqueCropReduction
	return BaseCycleHours * (1 - gh - unique)
}

// CyclesPerLifespan returns how many cycles fit in a setup lifespan
func (c PlayerConfig) CyclesPerLifespan() float64 {
	tau := c.CycleTimeHours()
	if tau <= 0 {
		return 0
	}
	return SetupLifespanHours / tau
}

// FortuneMultiplier returns the drop multiplier from fortune and fixed buffs
func (c PlayerConfig) FortuneMultiplier() float64 {
	return baseDropMultiplier * (c.Fortune/100 + 1)
}

// IsMaxed reports whether a milestone group has been marked maxed
func (c PlayerConfig) IsMaxed(group string) bool {
	for _, m := range c.MaxedCrops {
		if strings.EqualFold(strings.TrimSpace(m), group) {
			return true
		}
	}
	return false
}
