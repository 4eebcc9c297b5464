package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/internal/model"
)

const sampleRecommendations = `Here is my advice:
` + "```json" + `
{
  "summary": "Poorly controlled type 2 diabetes.",
  "recommendations": [
    {"category": "medication", "priority": "high", "recommendation": "Continue Metformin as prescribed.", "reason": "HbA1c is above target."}
  ],
  "warnings": [{"severity": "medium", "warning": "Hypoglycaemia risk", "action": "Monitor glucose"}],
  "nextSteps": ["Repeat HbA1c in 3 months"]
}
` + "```"

func sampleMerged(t *testing.T) *model.MergedDocument {
	t.Helper()
	return Merge([]model.PageExtraction{mustPage(t, samplePageJSON)})
}

func TestRecommenderGenerate(t *testing.T) {
	provider := staticProvider(sampleRecommendations, nil)
	r := NewRecommender(provider, RecommenderConfig{})

	recs := r.Generate(context.Background(), sampleMerged(t))
	require.NotNil(t, recs)
	assert.Equal(t, "Poorly controlled type 2 diabetes.", recs.Summary)
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, "high", recs.Recommendations[0].Priority)
	assert.Equal(t, []string{"Repeat HbA1c in 3 months"}, recs.NextSteps)

	req := provider.calls[0]
	assert.Equal(t, DefaultRecommendationTemperature, req.Temperature)
	assert.Equal(t, DefaultRecommendationMaxTokens, req.MaxOutputTokens)
	assert.Contains(t, req.Parts[0].Text, "Metformin")
	assert.Contains(t, req.Parts[0].Text, `"diagnosis":"Type 2 Diabetes"`)
}

func TestRecommenderFailuresReturnNil(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{name: "provider error", err: errors.New("quota exceeded")},
		{name: "not json", raw: "No recommendations available."},
		{name: "missing recommendations", raw: `{"summary": "ok"}`},
		{name: "wrong type", raw: `{"summary": 3, "recommendations": []}`},
		{name: "empty recommendation text", raw: `{"summary": "s", "recommendations": [{"recommendation": ""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecommender(staticProvider(tt.raw, tt.err), RecommenderConfig{})
			assert.Nil(t, r.Generate(context.Background(), sampleMerged(t)))
		})
	}
}

func TestDecodeRecommendationsFillsEmptyLists(t *testing.T) {
	recs, err := decodeRecommendations(`{"summary": "Healthy", "recommendations": []}`)
	require.NoError(t, err)
	assert.NotNil(t, recs.Warnings)
	assert.NotNil(t, recs.NextSteps)
}

func TestRecommenderKeepsShortLists(t *testing.T) {
	provider := staticProvider(`{"summary": "Stable", "recommendations": [{"recommendation": "Keep taking Metformin."}]}`, nil)
	r := NewRecommender(provider, RecommenderConfig{})

	recs := r.Generate(context.Background(), sampleMerged(t))
	require.NotNil(t, recs)
	assert.Len(t, recs.Recommendations, 1)
	assert.Contains(t, provider.calls[0].Parts[0].Text, "3-7 recommendations")
}
