package ranking

import (
	"fmt"
	"strings"

	"github.com/napolitain/solver-mutations/internal/models"
)

const distinctCropBonus = 0.2

type scorer struct {
	score     func(e *Entry) float64
	ascending bool
	dropZero  bool
}

func (r *Ranker) newScorer(cfg models.PlayerConfig) (scorer, error) {
	mult := cfg.FortuneMultiplier()

	switch cfg.Mode {
	case models.ModeSmart:
		groups := r.activeGroups(cfg)
		return scorer{
			dropZero: true,
			score: func(e *Entry) float64 {
				return r.milestoneScore(e.Mutation, e.Limit, mult, groups)
			},
		}, nil

	case models.ModeTarget:
		crops, err := r.resolveTarget(cfg.TargetCrop)
		if err != nil {
			return scorer{}, err
		}
		return scorer{
			dropZero: true,
			score: func(e *Entry) float64 {
				drop := 0.0
				for _, c := range crops {
					drop += r.tables.Drops[e.Mutation][c]
				}
				return drop * float64(e.Limit) * mult
			},
		}, nil

	case models.ModeSetup:
		return scorer{
			ascending: true,
			score:     func(e *Entry) float64 { return e.SetupCost },
		}, nil

	default:
		return scorer{
			score: func(e *Entry) float64 { return e.ProfitPerHour },
		}, nil
	}
}

// activeGroups returns the milestone groups still worth progressing
func (r *Ranker) activeGroups(cfg models.PlayerConfig) []string {
	var groups []string
	for _, g := range r.tables.MilestoneGroups() {
		if !cfg.IsMaxed(g) {
			groups = append(groups, g)
		}
	}
	return groups
}

// milestoneScore sums milestone progress percentages and rewards covering
// several groups at once
func (r *Ranker) milestoneScore(mutation string, limit int, mult float64, groups []string) float64 {
	points := 0.0
	distinct := 0
	for _, g := range groups {
		drop := r.tables.GroupDrop(mutation, g)
		if drop <= 0 {
			continue
		}
		distinct++
		total := drop * float64(limit) * mult
		points += total / r.tables.Milestones[g] * 100
	}
	if distinct == 0 {
		return 0
	}
	return points * (1 + distinctCropBonus*float64(distinct-1))
}

// resolveTarget maps a crop or milestone group name to the crops it covers
func (r *Ranker) resolveTarget(target string) ([]string, error) {
	for _, g := range r.tables.MilestoneGroups() {
		if strings.EqualFold(g, target) {
			if crops := r.tables.CropsInGroup(g); len(crops) > 0 {
				return crops, nil
			}
		}
	}
	for _, crop := range r.tables.CropOrder {
		if strings.EqualFold(crop, target) {
			return []string{crop}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownCrop, target)
}
