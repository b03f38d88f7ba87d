package model

// TreatmentCategory identifies how a later opinion characterized an earlier one
type TreatmentCategory string

const (
	// Negative treatments
	TreatmentOverruled   TreatmentCategory = "overruled"
	TreatmentAbrogated   TreatmentCategory = "abrogated"
	TreatmentReversed    TreatmentCategory = "reversed"
	TreatmentVacated     TreatmentCategory = "vacated"
	TreatmentSuperseded  TreatmentCategory = "superseded"
	TreatmentDisapproved TreatmentCategory = "disapproved"
	TreatmentRejected    TreatmentCategory = "rejected"
	TreatmentQuestioned  TreatmentCategory = "questioned"
	TreatmentCriticized  TreatmentCategory = "criticized"
	TreatmentLimited     TreatmentCategory = "limited"

	// Positive treatments
	TreatmentAffirmed TreatmentCategory = "affirmed"
	TreatmentFollowed TreatmentCategory = "followed"
	TreatmentApproved TreatmentCategory = "approved"
	TreatmentApplied  TreatmentCategory = "applied"

	// Neutral treatments
	TreatmentDistinguished TreatmentCategory = "distinguished"
	TreatmentExplained     TreatmentCategory = "explained"
	TreatmentDiscussed     TreatmentCategory = "discussed"
	TreatmentCited         TreatmentCategory = "cited"

	// No signal detected
	TreatmentUnknown TreatmentCategory = "unknown"
)

// Polarity classifies the direction of a treatment signal
type Polarity string

const (
	PolarityNegative Polarity = "negative"
	PolarityPositive Polarity = "positive"
	PolarityNeutral  Polarity = "neutral"
)

// TreatmentSignal represents one keyword or negation-phrase match within a
// descriptive excerpt. Signals are transient: they exist only inside a
// classification call and are never persisted on their own.
type TreatmentSignal struct {
	Category          TreatmentCategory `json:"category"`
	Polarity          Polarity          `json:"polarity"`
	Keyword           string            `json:"keyword"`             // Matched keyword or phrase
	BaseScore         int               `json:"base_score"`          // Severity weight before modifiers
	ContextMultiplier float64           `json:"context_multiplier"`  // From nearby intensifier/weakener words
	FinalScore        int               `json:"final_score"`         // round(BaseScore * ContextMultiplier)
	Start             int               `json:"start"`               // Offset in normalized text
	End               int               `json:"end"`
	IsNegation        bool              `json:"is_negation"`         // Match came from the negation table
	Excerpt           string            `json:"excerpt,omitempty"`   // Source excerpt the match came from
}

// TreatmentAssessment aggregates all signals found across the excerpts
// describing one opinion
type TreatmentAssessment struct {
	DominantCategory TreatmentCategory `json:"dominant_category"`
	Severity         Polarity          `json:"severity"`
	Confidence       float64           `json:"confidence"` // 0..1
	NegativeCount    int               `json:"negative_count"`
	PositiveCount    int               `json:"positive_count"`
	NeutralCount     int               `json:"neutral_count"`
	Evidence         []TreatmentSignal `json:"evidence,omitempty"` // Top signals, strongest first
}

// HasNegative reports whether any negative treatment was detected
func (a TreatmentAssessment) HasNegative() bool {
	return a.NegativeCount > 0
}
