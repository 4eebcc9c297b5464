package model

// HealthRecommendations is the advisory output generated from a merged document.
type HealthRecommendations struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Warnings        []Warning        `json:"warnings"`
	NextSteps       []string         `json:"nextSteps"`
}

// Recommendation priority is one of high, medium or low.
type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

type Warning struct {
	Severity string `json:"severity"`
	Warning  string `json:"warning"`
	Action   string `json:"action"`
}
