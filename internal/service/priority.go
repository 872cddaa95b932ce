package service

import (
	"math"

	"github.com/citycare/issue-service/internal/domain"
)

// PriorityScorer ranks new issues for triage ordering. The engine treats the
// score as opaque.
type PriorityScorer interface {
	Score(issue *domain.Issue) float64
}

// WeightedPriorityScorer multiplies a severity weight by a category weight.
type WeightedPriorityScorer struct {
	Severity map[domain.IssueSeverity]float64
	Category map[domain.IssueCategory]float64
}

// NewWeightedPriorityScorer returns the default weights.
func NewWeightedPriorityScorer() *WeightedPriorityScorer {
	return &WeightedPriorityScorer{
		Severity: map[domain.IssueSeverity]float64{
			domain.SeverityLow:    1,
			domain.SeverityMedium: 2,
			domain.SeverityHigh:   3,
		},
		Category: map[domain.IssueCategory]float64{
			domain.CategoryWater:    1.5,
			domain.CategoryRoad:     1.3,
			domain.CategoryLighting: 1.2,
			domain.CategoryWaste:    1.1,
			domain.CategoryOther:    1,
		},
	}
}

// Score implements PriorityScorer.
func (w *WeightedPriorityScorer) Score(issue *domain.Issue) float64 {
	sev, ok := w.Severity[issue.Severity]
	if !ok {
		sev = 1
	}
	cat, ok := w.Category[issue.Category]
	if !ok {
		cat = 1
	}
	return math.Round(sev*cat*100) / 100
}
