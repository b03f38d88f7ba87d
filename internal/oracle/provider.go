// Package oracle invokes the external natural-language assessment oracle for
// per-opinion quality judgments. The oracle is a capability, not an
// implementation: a deterministic rule-based provider stands in whenever no
// remote model is configured, which also decouples traversal tests from any
// judgment source.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okravets/shepard/internal/model"
)

// ErrUnavailable means the oracle could not answer right now
var ErrUnavailable = errors.New("oracle: unavailable")

// ErrInvalidResponse means the oracle answered with something unparseable
var ErrInvalidResponse = errors.New("oracle: invalid response")

// Request carries one opinion to be judged
type Request struct {
	OpinionID   string
	OpinionName string
	OpinionText string

	// Treatment is the classifier's aggregate over the excerpts describing
	// this opinion. It gives the oracle the citation-graph context the text
	// alone lacks.
	Treatment model.TreatmentAssessment
}

// Judgment is the oracle's structured answer
type Judgment struct {
	Category     model.QualityCategory `json:"category"`
	Confidence   float64               `json:"confidence"`
	RiskScore    int                   `json:"risk_score"`
	Summary      string                `json:"summary"`
	IsOverruled  bool                  `json:"is_overruled"`
	IsQuestioned bool                  `json:"is_questioned"`
	IsCriticized bool                  `json:"is_criticized"`
}

// Provider defines the interface for assessment oracle implementations
type Provider interface {
	// Name returns the provider name
	Name() string

	// Assess judges one opinion's precedential quality
	Assess(ctx context.Context, req Request) (*Judgment, error)
}

// maxPromptText bounds how much opinion text is sent to a remote model
const maxPromptText = 8000

// BuildPrompt constructs the assessment prompt for remote providers
func BuildPrompt(req Request) string {
	text := req.OpinionText
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	var b strings.Builder
	b.WriteString("You are assessing the precedential reliability of a legal opinion.\n")
	b.WriteString("Respond with ONLY a JSON object of this shape:\n")
	b.WriteString(`{"category": "good|questionable|overruled|superseded|uncertain", "confidence": 0.0, "risk_score": 0, "summary": "...", "is_overruled": false, "is_questioned": false, "is_criticized": false}`)
	b.WriteString("\n\nrisk_score is 0-100, higher = less reliable as precedent.\n\n")

	if req.OpinionName != "" {
		fmt.Fprintf(&b, "Opinion: %s\n", req.OpinionName)
	}
	fmt.Fprintf(&b, "How later opinions treated it: dominant=%s severity=%s (negative=%d positive=%d neutral=%d, classifier confidence %.2f)\n",
		req.Treatment.DominantCategory, req.Treatment.Severity,
		req.Treatment.NegativeCount, req.Treatment.PositiveCount, req.Treatment.NeutralCount,
		req.Treatment.Confidence)
	for i, sig := range req.Treatment.Evidence {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %q (%s)\n", sig.Excerpt, sig.Keyword)
	}
	b.WriteString("\nOpinion text:\n")
	b.WriteString(text)
	return b.String()
}

// ParseJudgment extracts the JSON judgment from a model's reply. Models often
// wrap JSON in prose or code fences; anything between the first '{' and the
// last '}' is tried.
func ParseJudgment(reply string) (*Judgment, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var j Judgment
	if err := json.Unmarshal([]byte(reply[start:end+1]), &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	switch j.Category {
	case model.QualityGood, model.QualityQuestionable, model.QualityOverruled,
		model.QualitySuperseded, model.QualityUncertain:
	default:
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidResponse, j.Category)
	}
	if j.Confidence < 0 || j.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrInvalidResponse, j.Confidence)
	}
	if j.RiskScore < 0 {
		j.RiskScore = 0
	}
	if j.RiskScore > 100 {
		j.RiskScore = 100
	}
	return &j, nil
}
