package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okravets/shepard/internal/store"
)

var showJSON string

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <opinion-id>",
	Short: "Show the cached analysis tree for an opinion",
	Long: `Show prints a previously computed analysis without re-running it.

Example:
  shepard show 118144
  shepard show 118144 --json tree.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(loadConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		tree, err := c.analyzer.GetTree(args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no analysis for opinion %s (run 'shepard analyze %s' first)", args[0], args[0])
			}
			return err
		}

		printTree(tree)
		if showJSON != "" {
			return writeTreeJSON(tree, showJSON)
		}
		return nil
	},
}

// nodeCmd represents the node command
var nodeCmd = &cobra.Command{
	Use:   "node <opinion-id>",
	Short: "Show the cached assessment for a single opinion",
	Long: `Node prints the latest assessment of one cited opinion. Assessments
are shared across analysis trees, so any opinion reached by any prior
analysis can be inspected here.

Example:
  shepard node 108713`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(loadConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		a, err := c.analyzer.GetAssessment(args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no assessment for opinion %s", args[0])
			}
			return err
		}

		fmt.Printf("Opinion:     %s\n", a.OpinionID)
		fmt.Printf("Version:     %s\n", a.Version)
		fmt.Printf("Category:    %s\n", a.Category)
		fmt.Printf("Risk:        %d/100\n", a.RiskScore)
		fmt.Printf("Confidence:  %.2f\n", a.Confidence)
		if a.IsOverruled {
			fmt.Printf("Flags:       OVERRULED\n")
		} else if a.IsQuestioned || a.IsCriticized {
			fmt.Printf("Flags:       questioned=%v criticized=%v\n", a.IsQuestioned, a.IsCriticized)
		}
		if a.Summary != "" {
			fmt.Printf("Summary:     %s\n", a.Summary)
		}
		if a.Treatment != nil {
			fmt.Printf("Treatment:   %s (%s severity, %d signals)\n",
				a.Treatment.DominantCategory, a.Treatment.Severity,
				a.Treatment.NegativeCount+a.Treatment.PositiveCount+a.Treatment.NeutralCount)
		}
		fmt.Printf("Analyzed:    %s\n", a.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear <opinion-id>",
	Short: "Remove the cached analysis tree for an opinion",
	Long: `Clear deletes an opinion's analysis tree. Per-opinion assessments are
kept: they are shared with other trees and versioned independently.

Example:
  shepard clear 118144`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(loadConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.analyzer.ClearTree(args[0]); err != nil {
			return err
		}
		fmt.Printf("Cleared analysis for %s\n", args[0])
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showJSON, "json", "", "write the full tree as JSON to this path")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(clearCmd)
}
