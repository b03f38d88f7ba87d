package analyzer

import (
	"fmt"
	"sort"

	"github.com/okravets/shepard/internal/model"
)

// highRiskThreshold is the per-node risk score above which a node joins the
// tree's high-risk set even without an overruled flag
const highRiskThreshold = 70

// deepRiskDepth is the depth at which problematic nodes trigger
// back-propagation up their citation paths
const deepRiskDepth = 3

// depthWeight discounts risk contribution by citation distance: a directly
// cited opinion matters more than one four hops away.
func depthWeight(depth int) float64 {
	switch {
	case depth <= 1:
		return 1.0
	case depth == 2:
		return 0.5
	case depth == 3:
		return 1.0 / 3.0
	default:
		return 0.25
	}
}

// aggregate computes the tree's overall risk from its analyzed nodes and
// rebuilds the high-risk set and risk factors from scratch. Recomputing on
// every completed traversal (instead of accumulating across runs) keeps
// incremental extensions from dragging stale entries along.
func aggregate(tree *model.AnalysisTree) {
	tree.HighRiskCitations = nil
	tree.RiskFactors = nil

	total := tree.NodeCount()
	if total == 0 {
		tree.OverallRiskScore = 0
		tree.OverallRiskLevel = model.RiskLow
		return
	}

	var weightedSum, weightTotal float64
	negative := 0
	uncertain := 0
	highRisk := make(map[string]bool)

	for depth, nodes := range tree.CitationsByDepth {
		w := depthWeight(depth)
		for _, n := range nodes {
			weightedSum += float64(n.RiskScore) * w
			weightTotal += w
			if n.Category == model.QualityOverruled || n.Category == model.QualitySuperseded {
				negative++
			}
			if n.Category == model.QualityUncertain {
				uncertain++
			}
			if n.IsOverruled || n.RiskScore > highRiskThreshold {
				highRisk[n.OpinionID] = true
			}
		}
	}

	depthWeightedRisk := weightedSum / weightTotal
	negativePct := float64(negative) / float64(total) * 100

	score := int(negativePct*0.5 + depthWeightedRisk*0.5)
	if score > 100 {
		score = 100
	}
	tree.OverallRiskScore = score
	tree.OverallRiskLevel = model.RiskLevelFor(score)

	if negative > 0 {
		tree.RiskFactors = append(tree.RiskFactors,
			fmt.Sprintf("%d of %d cited opinions are overruled or superseded (%.0f%%)", negative, total, negativePct))
	}
	if uncertain > 0 {
		tree.RiskFactors = append(tree.RiskFactors,
			fmt.Sprintf("%d of %d cited opinions could not be assessed", uncertain, total))
	}

	propagateDeepRisk(tree, highRisk)

	for id := range highRisk {
		tree.HighRiskCitations = append(tree.HighRiskCitations, id)
	}
	sort.Strings(tree.HighRiskCitations)
}

// propagateDeepRisk surfaces problems buried deep in the citation graph: for
// every overruled or questionable node at depth >= deepRiskDepth, a risk
// factor naming each ancestor on its citation path is appended to the tree.
// Only the tree is annotated; the cached per-node assessments stay untouched
// so other trees can keep reusing them.
func propagateDeepRisk(tree *model.AnalysisTree, highRisk map[string]bool) {
	var depths []int
	for depth := range tree.CitationsByDepth {
		if depth >= deepRiskDepth {
			depths = append(depths, depth)
		}
	}
	sort.Ints(depths)

	for _, depth := range depths {
		for _, n := range tree.CitationsByDepth[depth] {
			if n.Category != model.QualityOverruled && n.Category != model.QualityQuestionable {
				continue
			}
			highRisk[n.OpinionID] = true
			for _, ancestor := range citationPath(tree, n.OpinionID) {
				tree.RiskFactors = append(tree.RiskFactors,
					fmt.Sprintf("%s relies, at depth %d, on %s opinion %s", ancestor, depth, n.Category, n.OpinionID))
			}
		}
	}
}

// citationPath walks Parents pointers from an opinion back to the root,
// returning the ancestors nearest-first and excluding the node itself. Each
// node's recorded parents are from the level that first reached it, so the
// walk terminates.
func citationPath(tree *model.AnalysisTree, opinionID string) []string {
	var path []string
	seen := map[string]bool{opinionID: true}
	current := opinionID
	for {
		parents := tree.Parents[current]
		if len(parents) == 0 {
			return path
		}
		next := parents[0]
		if seen[next] {
			return path
		}
		seen[next] = true
		path = append(path, next)
		if next == tree.RootOpinionID {
			return path
		}
		current = next
	}
}
