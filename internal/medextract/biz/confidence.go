package biz

import (
	"math"

	"github.com/kart-io/medextract/internal/model"
)

const (
	baseConfidence     = 70.0
	completenessBonus  = 10.0
	partialBonus       = 5.0
	incompletePenalty  = -20.0
	clinicalDataBonus  = 10.0
	completenessTarget = 4
	partialTarget      = 2
)

// ScorePage computes a page's confidence in [0, 100]. Pages whose extraction
// failed always score 0.
func ScorePage(page model.PageExtraction, succeeded bool) int {
	if !succeeded {
		return 0
	}

	score := baseConfidence
	if s := page.ExtractionMetadata.ConfidenceScore; s.Valid && !math.IsNaN(s.Value) {
		score = s.Value
	}

	present := 0
	for _, t := range []model.Text{
		page.PatientInfo.FullName,
		page.DocumentInfo.Type,
		page.ProviderInfo.HospitalName,
		page.ProviderInfo.DoctorName,
		page.ClinicalData.Diagnosis,
	} {
		if !t.IsEmpty() {
			present++
		}
	}
	switch {
	case present >= completenessTarget:
		score += completenessBonus
	case present >= partialTarget:
		score += partialBonus
	default:
		score += incompletePenalty
	}

	c := page.ClinicalData
	if len(c.Medications) > 0 || len(c.Procedures) > 0 || len(c.LabResults) > 0 {
		score += clinicalDataBonus
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// ScoreDocument returns the rounded mean of the page scores, or 0 for none.
func ScoreDocument(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}
