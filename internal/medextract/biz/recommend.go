package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/llm"
	"github.com/kart-io/medextract/pkg/utils/json"
)

// Default call settings for recommendation generation.
const (
	DefaultRecommendationTemperature float32 = 0.3
	DefaultRecommendationMaxTokens   int32   = 2048
)

const recommendationsSchemaURL = "health_recommendations.json"

const recommendationsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary", "recommendations"],
  "properties": {
    "summary": {"type": "string"},
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["recommendation"],
        "properties": {
          "category": {"type": "string"},
          "priority": {"type": "string"},
          "recommendation": {"type": "string", "minLength": 1},
          "reason": {"type": "string"}
        }
      }
    },
    "warnings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["warning"],
        "properties": {
          "severity": {"type": "string"},
          "warning": {"type": "string", "minLength": 1},
          "action": {"type": "string"}
        }
      }
    },
    "nextSteps": {"type": "array", "items": {"type": "string"}}
  }
}`

var compileRecommendationsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recommendationsSchemaURL, strings.NewReader(recommendationsSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(recommendationsSchemaURL)
})

// clinicalSummary is the subset of a merged document sent for advice.
type clinicalSummary struct {
	Diagnosis      model.Text            `json:"diagnosis"`
	Medications    []model.Medication    `json:"medications"`
	LabResults     []model.LabResult     `json:"labResults"`
	VitalSigns     []model.VitalSign     `json:"vitalSigns"`
	Allergies      model.TextList        `json:"allergies"`
	MedicalHistory model.Text            `json:"medicalHistory"`
	Procedures     []model.Procedure     `json:"procedures"`
	TreatmentPlan  model.MergedTreatment `json:"treatmentPlan"`
}

func newClinicalSummary(d *model.MergedDocument) clinicalSummary {
	return clinicalSummary{
		Diagnosis:      d.Medical.Diagnosis,
		Medications:    d.Medical.Medications,
		LabResults:     d.Medical.LabResults,
		VitalSigns:     d.Medical.VitalSigns,
		Allergies:      d.Medical.Allergies,
		MedicalHistory: d.Medical.MedicalHistory,
		Procedures:     d.Medical.Procedures,
		TreatmentPlan:  d.Treatment,
	}
}

// RecommenderConfig 建议生成配置。
type RecommenderConfig struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Recommender 根据合并后的临床数据生成健康建议。
type Recommender struct {
	provider llm.VisionProvider
	config   RecommenderConfig
}

// NewRecommender 创建建议生成器。零值配置使用默认参数。
func NewRecommender(provider llm.VisionProvider, config RecommenderConfig) *Recommender {
	if config.Temperature == 0 {
		config.Temperature = DefaultRecommendationTemperature
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = DefaultRecommendationMaxTokens
	}
	return &Recommender{provider: provider, config: config}
}

// Generate returns advice for d, or nil when the model call, parsing or
// schema validation fails. Failures are logged and never propagated.
func (r *Recommender) Generate(ctx context.Context, d *model.MergedDocument) *model.HealthRecommendations {
	recs, err := r.generate(ctx, d)
	if err != nil {
		logger.Warnw("health recommendations unavailable", "provider", r.provider.Name(), "error", err.Error())
		return nil
	}
	return recs
}

func (r *Recommender) generate(ctx context.Context, d *model.MergedDocument) (*model.HealthRecommendations, error) {
	if d == nil {
		return nil, fmt.Errorf("no document")
	}
	clinical, err := json.Marshal(newClinicalSummary(d))
	if err != nil {
		return nil, fmt.Errorf("marshal clinical data: %w", err)
	}

	raw, err := r.provider.GenerateContent(ctx, &llm.GenerateRequest{
		Parts:           []llm.Part{llm.TextPart(RecommendationPrompt(string(clinical)))},
		Temperature:     r.config.Temperature,
		MaxOutputTokens: r.config.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return decodeRecommendations(raw)
}

// decodeRecommendations parses raw model output and checks it against the
// recommendations schema before decoding into the typed result.
func decodeRecommendations(raw string) (*model.HealthRecommendations, error) {
	var doc any
	if _, err := ParseJSON(raw, &doc); err != nil {
		return nil, err
	}

	schema, err := compileRecommendationsSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var recs model.HealthRecommendations
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, err
	}
	if recs.Recommendations == nil {
		recs.Recommendations = []model.Recommendation{}
	}
	if recs.Warnings == nil {
		recs.Warnings = []model.Warning{}
	}
	if recs.NextSteps == nil {
		recs.NextSteps = []string{}
	}
	return &recs, nil
}
