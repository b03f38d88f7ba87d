package treatment

import (
	"reflect"
	"testing"

	"github.com/okravets/shepard/internal/model"
)

func TestClassify_NegationPrecedence(t *testing.T) {
	signals := Classify("The court declined to follow Smith v. Jones.")

	if len(signals) == 0 {
		t.Fatal("expected at least one signal")
	}
	for _, sig := range signals {
		if sig.Polarity == model.PolarityPositive {
			t.Errorf("negated phrase must not yield a positive signal, got %+v", sig)
		}
	}

	foundNegation := false
	for _, sig := range signals {
		if sig.IsNegation && sig.Keyword == "declined to follow" {
			foundNegation = true
			if sig.Polarity != model.PolarityNegative {
				t.Errorf("negation signal polarity = %s, want negative", sig.Polarity)
			}
		}
	}
	if !foundNegation {
		t.Error("expected a negation signal for 'declined to follow'")
	}
}

func TestClassify_PositiveWithoutNegation(t *testing.T) {
	signals := Classify("The court followed Smith v. Jones.")

	found := false
	for _, sig := range signals {
		if sig.Keyword == "followed" && sig.Polarity == model.PolarityPositive {
			found = true
			if sig.BaseScore != 7 {
				t.Errorf("followed base score = %d, want 7", sig.BaseScore)
			}
		}
	}
	if !found {
		t.Error("expected a positive signal for 'followed'")
	}
}

func TestClassify_ContextModifierMonotonicity(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"overruled", 10},
		{"expressly overruled", 13},
		{"arguably overruled", 7},
	}

	for _, tt := range tests {
		signals := Classify(tt.text)
		if len(signals) != 1 {
			t.Fatalf("Classify(%q): expected 1 signal, got %d", tt.text, len(signals))
		}
		if signals[0].FinalScore != tt.want {
			t.Errorf("Classify(%q) final score = %d, want %d", tt.text, signals[0].FinalScore, tt.want)
		}
	}
}

func TestClassify_StrongestIntensifierWins(t *testing.T) {
	signals := Classify("clearly and unequivocally overruled")
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	// 1.4 beats 1.2 when both are in the window
	if signals[0].ContextMultiplier != 1.4 {
		t.Errorf("multiplier = %v, want 1.4", signals[0].ContextMultiplier)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "The holding was expressly overruled; later cases distinguished and followed other parts."
	first := Classify(text)
	second := Classify(text)
	if !reflect.DeepEqual(first, second) {
		t.Error("classifying the same text twice yielded different signals")
	}
}

func TestClassify_EmptyText(t *testing.T) {
	if signals := Classify(""); len(signals) != 0 {
		t.Errorf("empty text should produce no signals, got %d", len(signals))
	}
	if signals := Classify("   \n\t "); len(signals) != 0 {
		t.Errorf("whitespace text should produce no signals, got %d", len(signals))
	}
	if signals := Classify("the parties stipulated to dismissal"); len(signals) != 0 {
		t.Errorf("signal-less text should produce no signals, got %d", len(signals))
	}
}

func TestClassify_NoLongerFollowedShadowsFollowed(t *testing.T) {
	signals := Classify("Smith is no longer followed in this circuit.")

	for _, sig := range signals {
		if sig.Keyword == "followed" && !sig.IsNegation {
			t.Errorf("'followed' inside 'no longer followed' must be suppressed, got %+v", sig)
		}
	}

	found := false
	for _, sig := range signals {
		if sig.IsNegation && sig.Category == model.TreatmentOverruled {
			found = true
		}
	}
	if !found {
		t.Error("expected 'no longer followed' to yield an overruled-category negation signal")
	}
}

func TestClassify_CaseAndWhitespaceNormalization(t *testing.T) {
	signals := Classify("EXPRESSLY   Overruled")
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if signals[0].FinalScore != 13 {
		t.Errorf("final score = %d, want 13", signals[0].FinalScore)
	}
}

func TestClassify_MultipleOccurrences(t *testing.T) {
	signals := Classify("overruled in part and overruled in full")
	count := 0
	for _, sig := range signals {
		if sig.Category == model.TreatmentOverruled {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 overruled signals, got %d", count)
	}
}
