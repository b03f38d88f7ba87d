package store

import (
	"errors"
	"testing"
	"time"

	"github.com/okravets/shepard/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_TreeRoundTrip(t *testing.T) {
	s := openTestStore(t)

	tree := model.NewAnalysisTree("opinion-1", "run-1", 2)
	tree.CompletedDepth = 1
	tree.CitationsByDepth[1] = []*model.NodeAssessment{
		{OpinionID: "opinion-2", Category: model.QualityGood, RiskScore: 10},
	}

	if err := s.PutTree(tree); err != nil {
		t.Fatalf("put tree: %v", err)
	}

	got, err := s.GetTree("opinion-1")
	if err != nil {
		t.Fatalf("get tree: %v", err)
	}
	if got.RootOpinionID != "opinion-1" || got.CompletedDepth != 1 {
		t.Errorf("unexpected tree: %+v", got)
	}
	if len(got.CitationsByDepth[1]) != 1 || got.CitationsByDepth[1][0].OpinionID != "opinion-2" {
		t.Errorf("citations not preserved: %+v", got.CitationsByDepth)
	}
}

func TestStore_GetTreeMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetTree("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteTree(t *testing.T) {
	s := openTestStore(t)

	tree := model.NewAnalysisTree("opinion-1", "run-1", 1)
	if err := s.PutTree(tree); err != nil {
		t.Fatalf("put tree: %v", err)
	}
	if err := s.DeleteTree("opinion-1"); err != nil {
		t.Fatalf("delete tree: %v", err)
	}
	if _, err := s.GetTree("opinion-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_AssessmentVersioning(t *testing.T) {
	s := openTestStore(t)

	first := &model.NodeAssessment{OpinionID: "op-1", Category: model.QualityGood, RiskScore: 10}
	if err := s.PutAssessment(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if first.Version == "" {
		t.Fatal("expected a version id to be assigned")
	}

	second := &model.NodeAssessment{OpinionID: "op-1", Category: model.QualityOverruled, RiskScore: 90}
	if err := s.PutAssessment(second); err != nil {
		t.Fatalf("put second: %v", err)
	}
	if second.Version == first.Version {
		t.Error("refresh must create a new version, not reuse the old id")
	}

	// Latest pointer follows the newest write
	latest, err := s.GetAssessment("op-1")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.Category != model.QualityOverruled {
		t.Errorf("latest category = %s, want overruled", latest.Category)
	}

	// History is preserved
	old, err := s.GetAssessmentVersion("op-1", first.Version)
	if err != nil {
		t.Fatalf("get old version: %v", err)
	}
	if old.Category != model.QualityGood {
		t.Errorf("old version category = %s, want good", old.Category)
	}
}

func TestNodeCache_GetOrAnalyze(t *testing.T) {
	s := openTestStore(t)
	cache := NewNodeCache(s, time.Minute)

	calls := 0
	analyze := func() (*model.NodeAssessment, error) {
		calls++
		return &model.NodeAssessment{OpinionID: "op-1", Category: model.QualityGood, RiskScore: 5}, nil
	}

	got, hit, err := cache.GetOrAnalyze("op-1", analyze)
	if err != nil {
		t.Fatalf("first GetOrAnalyze: %v", err)
	}
	if hit {
		t.Error("first call should be a miss")
	}
	if got.Category != model.QualityGood {
		t.Errorf("category = %s, want good", got.Category)
	}

	_, hit, err = cache.GetOrAnalyze("op-1", analyze)
	if err != nil {
		t.Fatalf("second GetOrAnalyze: %v", err)
	}
	if !hit {
		t.Error("second call should hit the cache")
	}
	if calls != 1 {
		t.Errorf("analyze called %d times, want 1", calls)
	}
}

func TestNodeCache_AnalyzeErrorNotCached(t *testing.T) {
	s := openTestStore(t)
	cache := NewNodeCache(s, time.Minute)

	boom := errors.New("oracle down")
	_, _, err := cache.GetOrAnalyze("op-1", func() (*model.NodeAssessment, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected analyze error, got %v", err)
	}

	// A later successful analysis still runs
	got, hit, err := cache.GetOrAnalyze("op-1", func() (*model.NodeAssessment, error) {
		return &model.NodeAssessment{OpinionID: "op-1", Category: model.QualityGood}, nil
	})
	if err != nil || hit || got == nil {
		t.Fatalf("retry after failure: got=%v hit=%v err=%v", got, hit, err)
	}
}

func TestNodeCache_SharedAcrossTrees(t *testing.T) {
	s := openTestStore(t)

	// Two caches over the same store model two concurrent analyses of
	// different roots sharing node entries.
	first := NewNodeCache(s, time.Minute)
	second := NewNodeCache(s, time.Minute)

	a := &model.NodeAssessment{OpinionID: "op-shared", Category: model.QualityQuestionable, RiskScore: 60}
	if err := first.Put(a); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found := second.Get("op-shared")
	if !found {
		t.Fatal("assessment should be visible through the shared store")
	}
	if got.Category != model.QualityQuestionable {
		t.Errorf("category = %s, want questionable", got.Category)
	}
}
