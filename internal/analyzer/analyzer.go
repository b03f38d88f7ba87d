// Package analyzer walks an opinion's citation graph breadth-first to a
// bounded depth, assessing every cited opinion and aggregating a
// depth-weighted risk score.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okravets/shepard/internal/graph"
	"github.com/okravets/shepard/internal/model"
	"github.com/okravets/shepard/internal/oracle"
	"github.com/okravets/shepard/internal/store"
	"github.com/okravets/shepard/internal/treatment"
	"github.com/okravets/shepard/internal/worker"
)

// Options configures an Analyzer
type Options struct {
	Source  graph.Source
	Oracle  *oracle.Client
	Store   *store.Store
	Nodes   *store.NodeCache
	Workers int
	Logger  *zap.Logger
}

// Analyzer orchestrates the recursive citation-quality analysis. One
// Analyzer may serve many roots; per-node assessments are shared through the
// node cache, trees are keyed by root.
type Analyzer struct {
	source  graph.Source
	oracle  *oracle.Client
	store   *store.Store
	nodes   *store.NodeCache
	workers int
	logger  *zap.Logger
}

// New creates an analyzer
func New(opts Options) *Analyzer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Analyzer{
		source:  opts.Source,
		oracle:  opts.Oracle,
		store:   opts.Store,
		nodes:   opts.Nodes,
		workers: opts.Workers,
		logger:  opts.Logger,
	}
}

// Analyze walks the citation graph below rootID to maxDepth and returns the
// finished tree.
//
// A prior tree deep enough for the request is returned unchanged. A prior
// shallower tree is extended from its last completed level; already-analyzed
// levels are never recomputed. With forceRefresh the traversal starts over
// and every node gets a freshly versioned assessment.
func (a *Analyzer) Analyze(ctx context.Context, rootID string, maxDepth int, forceRefresh bool) (*model.AnalysisTree, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be >= 1, got %d", maxDepth)
	}

	tree, err := a.prepareTree(rootID, maxDepth, forceRefresh)
	if err != nil {
		return nil, err
	}
	if tree.Status == model.StatusCompleted && tree.CompletedDepth >= maxDepth {
		a.logger.Debug("tree cache hit",
			zap.String("root", rootID),
			zap.Int("completed_depth", tree.CompletedDepth))
		return tree, nil
	}

	// The root must resolve for the traversal to mean anything. A root that
	// cannot be resolved at all is the one unrecoverable per-node error.
	if _, ok := tree.Edges[rootID]; !ok {
		root, err := a.source.Resolve(ctx, rootID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return tree, err
			}
			return a.failTree(tree, fmt.Sprintf("resolve root opinion: %v", err)), fmt.Errorf("resolve root %s: %w", rootID, err)
		}
		tree.Edges[rootID] = root.Citations
	}

	for depth := tree.CompletedDepth + 1; depth <= maxDepth; depth++ {
		candidates := a.collectCandidates(tree, depth)
		a.logger.Info("analyzing level",
			zap.String("root", rootID),
			zap.Int("depth", depth),
			zap.Int("candidates", len(candidates)))

		results, err := a.analyzeLevel(ctx, tree, depth, candidates, forceRefresh)
		if err != nil {
			// Cancellation mid-level: the last persisted level stands, the
			// half-done one is discarded, and the tree stays resumable.
			return tree, err
		}

		for _, r := range results {
			tree.CitationsByDepth[depth] = append(tree.CitationsByDepth[depth], r.assessment)
			tree.Edges[r.assessment.OpinionID] = r.citations
			if r.cacheHit {
				tree.CacheHits++
			} else {
				tree.CacheMisses++
			}
		}
		sortLevel(tree.CitationsByDepth[depth])

		tree.CompletedDepth = depth
		if err := a.store.PutTree(tree); err != nil {
			return a.failTree(tree, fmt.Sprintf("persist level %d: %v", depth, err)), fmt.Errorf("persist tree for %s: %w", rootID, err)
		}
	}

	aggregate(tree)
	now := time.Now().UTC()
	tree.Status = model.StatusCompleted
	tree.CompletedAt = &now
	if err := a.store.PutTree(tree); err != nil {
		return a.failTree(tree, fmt.Sprintf("persist completed tree: %v", err)), fmt.Errorf("persist tree for %s: %w", rootID, err)
	}

	a.logger.Info("analysis completed",
		zap.String("root", rootID),
		zap.Int("depth", tree.CompletedDepth),
		zap.Int("nodes", tree.NodeCount()),
		zap.Int("risk_score", tree.OverallRiskScore),
		zap.String("risk_level", string(tree.OverallRiskLevel)))
	return tree, nil
}

// GetTree returns the cached tree for a root, if any
func (a *Analyzer) GetTree(rootID string) (*model.AnalysisTree, error) {
	return a.store.GetTree(rootID)
}

// GetAssessment returns the latest cached assessment for an opinion
func (a *Analyzer) GetAssessment(opinionID string) (*model.NodeAssessment, error) {
	return a.store.GetAssessment(opinionID)
}

// ClearTree removes the cached tree for a root. Node assessments survive:
// they are shared across trees.
func (a *Analyzer) ClearTree(rootID string) error {
	return a.store.DeleteTree(rootID)
}

// prepareTree loads a resumable prior tree or starts a fresh one
func (a *Analyzer) prepareTree(rootID string, maxDepth int, forceRefresh bool) (*model.AnalysisTree, error) {
	if forceRefresh {
		return model.NewAnalysisTree(rootID, uuid.NewString(), maxDepth), nil
	}

	prior, err := a.store.GetTree(rootID)
	if err != nil {
		if store.IsNotFound(err) {
			return model.NewAnalysisTree(rootID, uuid.NewString(), maxDepth), nil
		}
		return nil, fmt.Errorf("load prior tree: %w", err)
	}

	if prior.Status == model.StatusFailed {
		// A failed run may still carry committed levels; resume from them
		prior.Status = model.StatusInProgress
		prior.ErrorMessage = ""
	}
	if prior.CompletedDepth < maxDepth {
		prior.Status = model.StatusInProgress
		prior.RequestedDepth = maxDepth
		prior.CompletedAt = nil
	}
	if prior.Edges == nil {
		prior.Edges = make(map[string][]model.Citation)
	}
	if prior.Parents == nil {
		prior.Parents = make(map[string][]string)
	}
	return prior, nil
}

// candidate is one opinion id reached at the current depth, with the
// excerpts its parents wrote about it
type candidate struct {
	opinionID string
	excerpts  []string
}

// collectCandidates gathers the distinct opinion ids cited from depth-1,
// excluding everything already visited at any shallower depth.
func (a *Analyzer) collectCandidates(tree *model.AnalysisTree, depth int) []candidate {
	var frontier []string
	if depth == 1 {
		frontier = []string{tree.RootOpinionID}
	} else {
		for _, n := range tree.CitationsByDepth[depth-1] {
			frontier = append(frontier, n.OpinionID)
		}
	}

	visited := tree.Visited()
	byID := make(map[string]*candidate)
	var order []string
	for _, parentID := range frontier {
		for _, edge := range tree.Edges[parentID] {
			if edge.OpinionID == "" || visited[edge.OpinionID] {
				continue
			}
			c, ok := byID[edge.OpinionID]
			if !ok {
				c = &candidate{opinionID: edge.OpinionID}
				byID[edge.OpinionID] = c
				order = append(order, edge.OpinionID)
			}
			if edge.Excerpt != "" {
				c.excerpts = append(c.excerpts, edge.Excerpt)
			}
			if !containsString(tree.Parents[edge.OpinionID], parentID) {
				tree.Parents[edge.OpinionID] = append(tree.Parents[edge.OpinionID], parentID)
			}
		}
	}

	sort.Strings(order)
	candidates := make([]candidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byID[id])
	}
	return candidates
}

// nodeResult is the outcome of one node job
type nodeResult struct {
	assessment *model.NodeAssessment
	citations  []model.Citation
	cacheHit   bool
	err        error
}

func (r nodeResult) GetError() error { return r.err }

// nodeJob resolves and assesses one opinion
type nodeJob struct {
	analyzer *Analyzer
	cand     candidate
	force    bool
}

func (j nodeJob) Execute(ctx context.Context) worker.Result {
	return j.analyzer.analyzeNode(ctx, j.cand, j.force)
}

// analyzeLevel runs all of a level's node jobs with bounded parallelism. All
// jobs finish before the next level's candidate set is computed.
func (a *Analyzer) analyzeLevel(ctx context.Context, tree *model.AnalysisTree, depth int, candidates []candidate, force bool) ([]nodeResult, error) {
	if len(candidates) == 0 {
		return nil, ctx.Err()
	}

	pool := worker.NewPool(ctx, a.workers, len(candidates))
	pool.Start()
	for _, c := range candidates {
		pool.Submit(nodeJob{analyzer: a, cand: c, force: force})
	}
	raw := pool.Wait()

	if err := ctx.Err(); err != nil || len(raw) < len(candidates) {
		if err == nil {
			err = context.Canceled
		}
		return nil, fmt.Errorf("level %d interrupted: %w", depth, err)
	}

	results := make([]nodeResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, r.(nodeResult))
	}
	return results, nil
}

// analyzeNode resolves one opinion and produces its assessment. Per-node
// failures never abort the traversal: the node is recorded as uncertain and
// its subtree is simply not expanded.
func (a *Analyzer) analyzeNode(ctx context.Context, cand candidate, force bool) nodeResult {
	op, err := a.source.Resolve(ctx, cand.opinionID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nodeResult{err: ctxErr}
		}
		a.logger.Warn("opinion resolution failed, recording uncertain node",
			zap.String("opinion_id", cand.opinionID),
			zap.Error(err))
		placeholder := model.UncertainAssessment(cand.opinionID, fmt.Sprintf("resolution failed: %v", err))
		return nodeResult{assessment: placeholder}
	}

	treat := treatment.Assess(cand.excerpts)
	req := oracle.Request{
		OpinionID:   op.ID,
		OpinionName: op.Name,
		OpinionText: op.Text,
		Treatment:   treat,
	}

	if force {
		assessment, err := a.oracle.Assess(ctx, req)
		if err != nil {
			placeholder := model.UncertainAssessment(cand.opinionID, fmt.Sprintf("assessment failed: %v", err))
			return nodeResult{assessment: placeholder, citations: op.Citations}
		}
		if err := a.nodes.Put(assessment); err != nil {
			a.logger.Warn("node cache write failed", zap.String("opinion_id", op.ID), zap.Error(err))
		}
		return nodeResult{assessment: assessment, citations: op.Citations}
	}

	assessment, hit, err := a.nodes.GetOrAnalyze(cand.opinionID, func() (*model.NodeAssessment, error) {
		return a.oracle.Assess(ctx, req)
	})
	if err != nil {
		// Failed assessments stay out of the shared cache so a healthy
		// oracle can fill them in on a later run
		placeholder := model.UncertainAssessment(cand.opinionID, fmt.Sprintf("assessment failed: %v", err))
		return nodeResult{assessment: placeholder, citations: op.Citations}
	}
	return nodeResult{assessment: assessment, citations: op.Citations, cacheHit: hit}
}

// failTree marks the tree failed, preserving committed levels, and persists
// it best-effort.
func (a *Analyzer) failTree(tree *model.AnalysisTree, message string) *model.AnalysisTree {
	tree.Status = model.StatusFailed
	tree.ErrorMessage = message
	now := time.Now().UTC()
	tree.CompletedAt = &now
	if err := a.store.PutTree(tree); err != nil {
		a.logger.Error("failed to persist failed tree",
			zap.String("root", tree.RootOpinionID),
			zap.Error(err))
	}
	return tree
}

func sortLevel(nodes []*model.NodeAssessment) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].OpinionID < nodes[j].OpinionID
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
