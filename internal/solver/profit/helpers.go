package profit

import "math"

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// CoinsPerMutation is the sale value of one harvested mutation.
// Negative or non-finite inputs count as zero.
func CoinsPerMutation(fortune, baseItems, itemPrice float64) float64 {
	items := nonNegative(baseItems) * (1 + nonNegative(fortune)/100)
	return items * nonNegative(itemPrice)
}

// HarvestStagesFromHours returns how many whole growth stages fit in hours
func HarvestStagesFromHours(hours, stageHours float64) int {
	stageHours = nonNegative(stageHours)
	if stageHours <= 0 {
		return 0
	}
	return int(math.Floor(nonNegative(hours) / stageHours))
}
