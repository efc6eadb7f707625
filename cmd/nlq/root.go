package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/internal/logger"
	"github.com/liamcoop/nlquery/interpreter"
	"github.com/liamcoop/nlquery/rules"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	seed      int64
	output    string
	rulesFile string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "nlq",
	Short: "Natural-language query interpreter",
	Long: "nlq maps plain-English analytics questions to one of a fixed set of SQL templates " +
		"using an ordered keyword rule catalog, and reports results, explanations and validation scores.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "seed for the dataset and random scores (0 = time seeded)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules-file", "", "YAML rule catalog replacing the built-in rules")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level written to stderr")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(rulesCmd)
}

// setup checks global flags and keeps log output off stdout
func setup(cmd *cobra.Command, args []string) error {
	if output != outputJSON && output != outputYAML {
		return fmt.Errorf("unknown output format %q (use json or yaml)", output)
	}

	logger.SetOutput(cmd.ErrOrStderr())
	return logger.Configure(logLevel, 1)
}

// loadEngine compiles the rule catalog from --rules-file, or the built-in rules
func loadEngine() (*rules.Engine, error) {
	catalog := rules.DefaultRules()
	if rulesFile != "" {
		loaded, err := rules.LoadCatalogFile(rulesFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	store := rules.NewInMemoryRuleStore()
	if _, err := rules.Seed(store, catalog); err != nil {
		return nil, err
	}

	return rules.NewEngine(store)
}

// newProcessor builds a single-use processor; memoization is pointless for one query
func newProcessor() (*interpreter.Processor, error) {
	engine, err := loadEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	data := dataset.New(dataset.WithSeed(seed))
	return interpreter.NewProcessor(engine, data,
		interpreter.WithRand(interpreter.NewRand(seed)),
		interpreter.WithCacheTTL(0),
	), nil
}

// printResult writes v to the command's stdout in the selected format
func printResult(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()

	if output == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
