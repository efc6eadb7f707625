package main

import (
	"fmt"

	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/rules"
	"github.com/spf13/cobra"
)

var (
	previewLimit int
	ruleSet      string
)

var tablesCmd = &cobra.Command{
	Use:   "tables [name]",
	Short: "List the reference tables, or preview the rows of one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTables,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the rule catalog",
	Long: "Print the rule catalog in evaluation order. With --output yaml the result " +
		"is a catalog file that --rules-file accepts.",
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	tablesCmd.Flags().IntVarP(&previewLimit, "limit", "n", 10, "rows to preview")
	rulesCmd.Flags().StringVar(&ruleSet, "set", "", "only list active rules of this set")
}

func runTables(cmd *cobra.Command, args []string) error {
	data := dataset.New(dataset.WithSeed(seed))

	if len(args) == 0 {
		return printResult(cmd, map[string]any{"tables": data.Summaries()})
	}

	rows, err := data.Rows(args[0], previewLimit)
	if err != nil {
		return err
	}
	return printResult(cmd, map[string]any{
		"name":    args[0],
		"rows":    data.Len(args[0]),
		"preview": rows,
	})
}

func runRules(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	store := engine.Store()

	var list []*rules.Rule
	if ruleSet != "" {
		if !rules.RuleSet(ruleSet).Valid() {
			return fmt.Errorf("unknown rule set %q", ruleSet)
		}
		list, err = store.ListActive(rules.RuleSet(ruleSet))
	} else {
		list, err = store.ListAll()
	}
	if err != nil {
		return err
	}

	if output == outputYAML {
		data, err := rules.MarshalCatalog(list)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	return printResult(cmd, map[string]any{"rules": list})
}
