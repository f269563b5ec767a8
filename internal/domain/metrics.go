package domain

import "time"

const (
	PeriodNone    = "none"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	// PeriodCustom se usa cuando el caller no nombra la ventana.
	PeriodCustom = "custom"
)

type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

type SentimentDistribution struct {
	PositivePct float64 `json:"positive_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
	NegativePct float64 `json:"negative_pct"`
}

type SentimentSummary struct {
	Counts          SentimentCounts       `json:"counts"`
	AverageScore    float64               `json:"average_score"`
	AveragePolarity float64               `json:"average_polarity"`
	Distribution    SentimentDistribution `json:"distribution"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// AggregateMetrics es un valor derivado; nunca es la fuente de verdad.
type AggregateMetrics struct {
	SubjectID        string           `json:"subject_id,omitempty"`
	Period           string           `json:"period"`
	WindowStart      *time.Time       `json:"window_start,omitempty"`
	WindowEnd        *time.Time       `json:"window_end,omitempty"`
	TotalNotes       int              `json:"total_notes"`
	SkippedNotes     int              `json:"skipped_notes,omitempty"`
	Sentiment        SentimentSummary `json:"sentiment"`
	DomainScores     DomainTags       `json:"domains"`
	KeywordFrequency []KeywordCount   `json:"keyword_frequency"`
	CalculatedAt     time.Time        `json:"calculated_at"`
}

// EmptyMetrics es el agregado fijo para una ventana sin notas.
func EmptyMetrics(now time.Time) AggregateMetrics {
	return AggregateMetrics{
		Period:           PeriodNone,
		DomainScores:     NewDomainTags(),
		KeywordFrequency: []KeywordCount{},
		CalculatedAt:     now,
	}
}
