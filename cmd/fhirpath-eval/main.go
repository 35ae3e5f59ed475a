package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgfhirpath "github.com/ehr/fhirpath/pkg/fhirpath"
)

// main wires a single "eval" command rather than the teacher's
// serve/migrate/tenant command group, since this CLI has one job:
// evaluate an expression against a resource file and print the result.
func main() {
	rootCmd := &cobra.Command{
		Use:   "fhirpath-eval",
		Short: "Evaluate a FHIRPath expression against a JSON resource",
	}

	rootCmd.AddCommand(evalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func evalCmd() *cobra.Command {
	var resourcePath string
	var precision int32
	var varFlags []string

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a FHIRPath expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(args[0], resourcePath, precision, varFlags)
		},
	}

	cmd.Flags().StringVarP(&resourcePath, "resource", "r", "", "path to a JSON resource file (omit to evaluate literal-only expressions)")
	cmd.Flags().Int32VarP(&precision, "precision", "p", pkgfhirpath.DefaultPrecision, "decimal precision for arithmetic")
	cmd.Flags().StringArrayVarP(&varFlags, "var", "V", nil, "external constant binding name=value, repeatable")

	return cmd
}

func runEval(expr, resourcePath string, precision int32, varFlags []string) error {
	var resource pkgfhirpath.Element
	if resourcePath != "" {
		data, err := os.ReadFile(resourcePath)
		if err != nil {
			return fmt.Errorf("read resource file: %w", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("decode resource JSON: %w", err)
		}
		resource = pkgfhirpath.NewMapElement(decoded)
	}

	vars, err := parseVarFlags(varFlags)
	if err != nil {
		return err
	}

	engine := pkgfhirpath.NewEngine(pkgfhirpath.WithPrecision(precision))
	result, err := engine.EvaluateString(expr, resource, vars)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	printResult(result)
	return nil
}

// parseVarFlags turns repeated "name=value" flags into the external
// constant bindings fhirpath.Engine.Evaluate accepts. Every value
// arrives as a FHIRPath String, the same "everything is a string
// until the expression coerces it" convention %context variables use.
func parseVarFlags(flags []string) (map[string]*pkgfhirpath.Value, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vars := make(map[string]*pkgfhirpath.Value, len(flags))
	for _, f := range flags {
		name, value, ok := splitOnce(f, '=')
		if !ok {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", f)
		}
		v := pkgfhirpath.NewString(value)
		vars[name] = &v
	}
	return vars, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func printResult(result pkgfhirpath.Collection) {
	if len(result) == 0 {
		fmt.Println("{}")
		return
	}
	out := make([]string, len(result))
	for i, v := range result {
		out[i] = v.Display()
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		fmt.Println(out)
		return
	}
	fmt.Println(string(encoded))
}
