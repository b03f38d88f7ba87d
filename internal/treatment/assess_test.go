package treatment

import (
	"testing"

	"github.com/okravets/shepard/internal/model"
)

func TestAssess_SeverityPriority(t *testing.T) {
	// One negative signal must win regardless of positive/neutral volume
	excerpts := []string{
		"followed with approval",
		"affirmed and applied the holding",
		"cited and discussed extensively",
		"criticized on other grounds",
	}

	got := Assess(excerpts)
	if got.Severity != model.PolarityNegative {
		t.Errorf("severity = %s, want negative", got.Severity)
	}
	if got.DominantCategory != model.TreatmentCriticized {
		t.Errorf("dominant category = %s, want criticized", got.DominantCategory)
	}
	if got.PositiveCount == 0 || got.NeutralCount == 0 {
		t.Error("positive and neutral counts should still be recorded")
	}
}

func TestAssess_PositiveOverNeutral(t *testing.T) {
	got := Assess([]string{"followed and affirmed", "cited"})
	if got.Severity != model.PolarityPositive {
		t.Errorf("severity = %s, want positive", got.Severity)
	}
	if got.DominantCategory != model.TreatmentAffirmed && got.DominantCategory != model.TreatmentFollowed {
		t.Errorf("dominant category = %s, want a positive category", got.DominantCategory)
	}
}

func TestAssess_NeutralDefault(t *testing.T) {
	got := Assess([]string{"cited in a footnote"})
	if got.Severity != model.PolarityNeutral {
		t.Errorf("severity = %s, want neutral", got.Severity)
	}
	if got.DominantCategory != model.TreatmentCited {
		t.Errorf("dominant category = %s, want cited", got.DominantCategory)
	}
	if got.Confidence <= 0 {
		t.Error("a single weak signal should keep a small positive confidence")
	}
}

func TestAssess_EmptyExcerpts(t *testing.T) {
	got := Assess(nil)
	if got.DominantCategory != model.TreatmentUnknown {
		t.Errorf("dominant category = %s, want unknown", got.DominantCategory)
	}
	if got.Severity != model.PolarityNeutral {
		t.Errorf("severity = %s, want neutral", got.Severity)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", got.Confidence)
	}
}

func TestAssess_ConfidenceRisesWithCorroboration(t *testing.T) {
	one := Assess([]string{"overruled"})
	three := Assess([]string{"overruled", "expressly overruled", "abrogated"})

	if three.Confidence <= one.Confidence {
		t.Errorf("confidence should rise with corroborating signals: one=%v three=%v",
			one.Confidence, three.Confidence)
	}
	if three.Confidence > 1.0 {
		t.Errorf("confidence must be capped at 1.0, got %v", three.Confidence)
	}
}

func TestAssess_ConfidenceRisesWithMargin(t *testing.T) {
	narrow := Assess([]string{"criticized", "followed and affirmed"})
	wide := Assess([]string{"expressly overruled and abrogated"})

	if wide.Confidence <= narrow.Confidence {
		t.Errorf("confidence should rise with winner margin: narrow=%v wide=%v",
			narrow.Confidence, wide.Confidence)
	}
}

func TestAssess_EvidenceCapped(t *testing.T) {
	excerpts := make([]string, 10)
	for i := range excerpts {
		excerpts[i] = "overruled and criticized and questioned"
	}
	got := Assess(excerpts)
	if len(got.Evidence) > maxEvidence {
		t.Errorf("evidence length = %d, want <= %d", len(got.Evidence), maxEvidence)
	}
	// Strongest first
	for i := 1; i < len(got.Evidence); i++ {
		if !got.Evidence[i-1].IsNegation && got.Evidence[i-1].FinalScore < got.Evidence[i].FinalScore {
			t.Error("evidence not sorted strongest first")
		}
	}
}
