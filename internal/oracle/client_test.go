package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okravets/shepard/internal/model"
)

// flakyProvider fails with ErrUnavailable a set number of times, then succeeds
type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) Assess(ctx context.Context, req Request) (*Judgment, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, fmt.Errorf("%w: injected", ErrUnavailable)
	}
	return &Judgment{Category: model.QualityGood, Confidence: 0.8, RiskScore: 10}, nil
}

// invalidProvider always answers with garbage
type invalidProvider struct{ calls int }

func (p *invalidProvider) Name() string { return "invalid" }

func (p *invalidProvider) Assess(ctx context.Context, req Request) (*Judgment, error) {
	p.calls++
	return nil, fmt.Errorf("%w: garbage", ErrInvalidResponse)
}

func TestClient_RetriesUnavailableOnce(t *testing.T) {
	provider := &flakyProvider{failures: 1}
	client := NewClient(provider, nil, nil)

	a, err := client.Assess(context.Background(), Request{OpinionID: "op-1"})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if a.Category != model.QualityGood {
		t.Errorf("category = %s, want good after one retry", a.Category)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestClient_SurfacesErrorAfterRetryBudget(t *testing.T) {
	provider := &flakyProvider{failures: 10}
	client := NewClient(provider, nil, nil)

	_, err := client.Assess(context.Background(), Request{OpinionID: "op-1"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want exactly 2 (one retry)", provider.calls)
	}
}

func TestClient_InvalidResponseNotRetried(t *testing.T) {
	provider := &invalidProvider{}
	client := NewClient(provider, nil, nil)

	_, err := client.Assess(context.Background(), Request{OpinionID: "op-1"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (no retry for malformed replies)", provider.calls)
	}
}

func TestParseJudgment(t *testing.T) {
	reply := "Here is my assessment:\n```json\n" +
		`{"category": "questionable", "confidence": 0.7, "risk_score": 60, "summary": "criticized twice", "is_criticized": true}` +
		"\n```"

	j, err := ParseJudgment(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.Category != model.QualityQuestionable || j.RiskScore != 60 || !j.IsCriticized {
		t.Errorf("unexpected judgment: %+v", j)
	}
}

func TestParseJudgment_Invalid(t *testing.T) {
	cases := []string{
		"no json here at all",
		`{"category": "fantastic", "confidence": 0.5}`,
		`{"category": "good", "confidence": 7}`,
	}
	for _, reply := range cases {
		if _, err := ParseJudgment(reply); err == nil {
			t.Errorf("ParseJudgment(%q) should fail", reply)
		}
	}
}

func TestParseJudgment_ClampsRiskScore(t *testing.T) {
	j, err := ParseJudgment(`{"category": "overruled", "confidence": 1, "risk_score": 150}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.RiskScore != 100 {
		t.Errorf("risk score = %d, want clamped to 100", j.RiskScore)
	}
}
