// Package converter provides conversions between request parameters and model types
package converter

import (
	"fmt"
	"strings"

	"github.com/napolitain/solver-mutations/internal/models"
)

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParseScoreMode converts a query value to a ScoreMode; empty means profit
func ParseScoreMode(s string) (models.ScoreMode, error) {
	switch normalizeEnum(s) {
	case "", "profit":
		return models.ModeProfit, nil
	case "smart", "milestone", "milestones":
		return models.ModeSmart, nil
	case "target", "crop":
		return models.ModeTarget, nil
	case "setup", "cheapest":
		return models.ModeSetup, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", models.ErrInvalidConfig, s)
	}
}

// ParseSetupMode converts a query value to a SetupMode; empty means buy order
func ParseSetupMode(s string) (models.SetupMode, error) {
	switch normalizeEnum(s) {
	case "", "buy_order", "order":
		return models.SetupBuyOrder, nil
	case "insta_buy", "instabuy", "instant":
		return models.SetupInstaBuy, nil
	default:
		return "", fmt.Errorf("%w: unknown setup_mode %q", models.ErrInvalidConfig, s)
	}
}

// ParseSellMode converts a query value to a SellMode; empty means sell offer
func ParseSellMode(s string) (models.SellMode, error) {
	switch normalizeEnum(s) {
	case "", "sell_offer", "offer":
		return models.SellOffer, nil
	case "insta_sell", "instasell", "instant":
		return models.SellInsta, nil
	default:
		return "", fmt.Errorf("%w: unknown sell_mode %q", models.ErrInvalidConfig, s)
	}
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
