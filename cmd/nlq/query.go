package main

import (
	"strings"

	"github.com/liamcoop/nlquery/interpreter"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <query...>",
	Short: "Interpret a query and print its result set",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProcess,
}

var explainCmd = &cobra.Command{
	Use:   "explain <query...>",
	Short: "Explain how a query is interpreted without executing it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplain,
}

var validateCmd = &cobra.Command{
	Use:   "validate <query...>",
	Short: "Score whether a query refers to known data",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var interpretCmd = &cobra.Command{
	Use:   "interpret <query...>",
	Short: "Print the entities, intent and template selected for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInterpret,
}

// interpretation is the raw output of the deterministic stages
type interpretation struct {
	Query    string               `json:"query" yaml:"query"`
	Entities interpreter.Entities `json:"entities" yaml:"entities"`
	Intent   interpreter.Intent   `json:"intent" yaml:"intent"`
	Template interpreter.Template `json:"template" yaml:"template"`
	SQL      string               `json:"sql" yaml:"sql"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}

	result, err := p.Process(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func runExplain(cmd *cobra.Command, args []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}

	result, err := p.Explain(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}

	result, err := p.Validate(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func runInterpret(cmd *cobra.Command, args []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}

	raw := strings.Join(args, " ")
	entities, intent, query, err := p.Interpret(raw)
	if err != nil {
		return err
	}

	return printResult(cmd, interpretation{
		Query:    interpreter.Normalize(raw),
		Entities: entities,
		Intent:   intent,
		Template: query.Template,
		SQL:      query.SQL,
	})
}
