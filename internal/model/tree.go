package model

import "time"

// TreeStatus tracks the lifecycle of one analysis run
type TreeStatus string

const (
	StatusInProgress TreeStatus = "in_progress"
	StatusCompleted  TreeStatus = "completed"
	StatusFailed     TreeStatus = "failed"
)

// RiskLevel buckets the overall risk score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"    // score < 40
	RiskMedium RiskLevel = "medium" // 40 <= score <= 70
	RiskHigh   RiskLevel = "high"   // score > 70
)

// RiskLevelFor maps an overall risk score to its level
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score > 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AnalysisTree is one traversal result rooted at an opinion. The tree is
// mutated level-by-level and persisted after each completed level, so a crash
// or cancellation leaves it resumable from CompletedDepth.
//
// Invariants: CompletedDepth <= RequestedDepth; every id at depth d was
// reached via a citation edge from a node at depth d-1 (root at depth 0); an
// id visited at a shallower depth is never re-listed deeper.
type AnalysisTree struct {
	RootOpinionID     string                    `json:"root_opinion_id"`
	RunID             string                    `json:"run_id"`
	RequestedDepth    int                       `json:"requested_depth"`
	CompletedDepth    int                       `json:"completed_depth"`
	CitationsByDepth  map[int][]*NodeAssessment `json:"citations_by_depth"`
	Parents           map[string][]string       `json:"parents,omitempty"` // opinion id -> ids that cited it (shallowest level only)
	Edges             map[string][]Citation     `json:"edges,omitempty"`   // opinion id -> outbound citations, kept so resume skips re-resolving
	HighRiskCitations []string                  `json:"high_risk_citations,omitempty"`
	OverallRiskScore  int                       `json:"overall_risk_score"`
	OverallRiskLevel  RiskLevel                 `json:"overall_risk_level"`
	RiskFactors       []string                  `json:"risk_factors,omitempty"`
	Status            TreeStatus                `json:"status"`
	ErrorMessage      string                    `json:"error_message,omitempty"`
	CacheHits         int                       `json:"cache_hits"`
	CacheMisses       int                       `json:"cache_misses"`
	StartedAt         time.Time                 `json:"started_at"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty"`
}

// NewAnalysisTree creates an empty in-progress tree for the given root
func NewAnalysisTree(rootID, runID string, requestedDepth int) *AnalysisTree {
	return &AnalysisTree{
		RootOpinionID:    rootID,
		RunID:            runID,
		RequestedDepth:   requestedDepth,
		CompletedDepth:   0,
		CitationsByDepth: make(map[int][]*NodeAssessment),
		Parents:          make(map[string][]string),
		Edges:            make(map[string][]Citation),
		Status:           StatusInProgress,
		StartedAt:        time.Now().UTC(),
	}
}

// Visited returns the set of every opinion id placed in the tree so far,
// including the root
func (t *AnalysisTree) Visited() map[string]bool {
	visited := map[string]bool{t.RootOpinionID: true}
	for _, nodes := range t.CitationsByDepth {
		for _, n := range nodes {
			visited[n.OpinionID] = true
		}
	}
	return visited
}

// NodeCount returns the number of analyzed (non-root) nodes
func (t *AnalysisTree) NodeCount() int {
	count := 0
	for _, nodes := range t.CitationsByDepth {
		count += len(nodes)
	}
	return count
}

// DepthOf returns the depth an opinion id was placed at, or -1 if absent
func (t *AnalysisTree) DepthOf(opinionID string) int {
	for depth, nodes := range t.CitationsByDepth {
		for _, n := range nodes {
			if n.OpinionID == opinionID {
				return depth
			}
		}
	}
	return -1
}
