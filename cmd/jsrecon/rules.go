package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/imoan723/JSRecon-Buddy/pkg/rule"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/spf13/cobra"
)

var (
	rulesPath   string
	rulesFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the secret detection catalog",
	Long:  "Display the detection rules applied to page sources, with their IDs and entropy gates",
	RunE:  runRulesList,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesPath, "rules", "", "Path to a custom rule YAML file")
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "table", "Output format: table, json")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadCatalog(rulesPath)
	if err != nil {
		return err
	}

	switch rulesFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", rulesFormat)
	}
}

func loadCatalog(path string) ([]*types.Rule, error) {
	loader := rule.NewLoader()
	if path != "" {
		r, err := loader.LoadRuleFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", path, err)
		}
		return []*types.Rule{r}, nil
	}
	rules, err := loader.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("loading builtin rules: %w", err)
	}
	return rules, nil
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tDescription\tMin Entropy\n")
	fmt.Fprintf(w, "--\t-----------\t-----------\n")

	for _, r := range rules {
		entropy := "-"
		if r.MinEntropy > 0 {
			entropy = fmt.Sprintf("%.1f", r.MinEntropy)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Description, entropy)
	}
	return nil
}
