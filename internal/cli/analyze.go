package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/okravets/shepard/internal/model"
)

var (
	analyzeDepth   int
	analyzeForce   bool
	analyzeJSON    string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <opinion-id>",
	Short: "Analyze the precedential reliability of an opinion",
	Long: `Analyze walks the citation graph below an opinion to the requested
depth, assessing every cited opinion it reaches:
- Classify how later opinions treated each citation from its citing text
- Judge each cited opinion (good law, questionable, overruled, superseded)
- Weight risk by citation distance and aggregate an overall score
- Surface overruled or questionable authority buried deep in the graph

Prior results are reused: re-running with a greater depth extends the
existing analysis instead of starting over.

Example:
  shepard analyze 118144
  shepard analyze 118144 --depth 3 --json tree.json
  shepard analyze 118144 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 0, "traversal depth (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "ignore cached results and re-assess every opinion")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "write the full tree as JSON to this path")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opinionID := args[0]
	cfg := loadConfig()

	depth := analyzeDepth
	if depth == 0 {
		depth = cfg.Analysis.DefaultDepth
	}
	if depth < 1 || depth > cfg.Analysis.MaxDepth {
		return fmt.Errorf("depth must be between 1 and %d, got %d", cfg.Analysis.MaxDepth, depth)
	}

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", opinionID)
		fmt.Fprintf(os.Stderr, "Depth: %d\n", depth)
		fmt.Fprintln(os.Stderr)
	}

	tree, err := c.analyzer.Analyze(ctx, opinionID, depth, analyzeForce)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printTree(tree)

	if analyzeJSON != "" {
		if err := writeTreeJSON(tree, analyzeJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", analyzeJSON)
		}
	}
	return nil
}

// printTree renders a human summary of an analysis tree to stdout
func printTree(tree *model.AnalysisTree) {
	fmt.Printf("Opinion:     %s\n", tree.RootOpinionID)
	fmt.Printf("Status:      %s\n", tree.Status)
	if tree.ErrorMessage != "" {
		fmt.Printf("Error:       %s\n", tree.ErrorMessage)
	}
	fmt.Printf("Depth:       %d of %d requested\n", tree.CompletedDepth, tree.RequestedDepth)
	fmt.Printf("Citations:   %d analyzed (%d from cache)\n", tree.NodeCount(), tree.CacheHits)
	fmt.Printf("Risk:        %d/100 (%s)\n", tree.OverallRiskScore, tree.OverallRiskLevel)

	if len(tree.HighRiskCitations) > 0 {
		fmt.Printf("\nHigh-risk citations:\n")
		for _, id := range tree.HighRiskCitations {
			fmt.Printf("  - %s\n", id)
		}
	}
	if len(tree.RiskFactors) > 0 {
		fmt.Printf("\nRisk factors:\n")
		for _, factor := range tree.RiskFactors {
			fmt.Printf("  - %s\n", factor)
		}
	}

	var depths []int
	for depth := range tree.CitationsByDepth {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	for _, depth := range depths {
		nodes := tree.CitationsByDepth[depth]
		if len(nodes) == 0 {
			continue
		}
		fmt.Printf("\nDepth %d:\n", depth)
		for _, n := range nodes {
			fmt.Printf("  %-20s %-14s risk %3d  %s\n", n.OpinionID, n.Category, n.RiskScore, n.Summary)
		}
	}
}

func writeTreeJSON(tree *model.AnalysisTree, path string) error {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
