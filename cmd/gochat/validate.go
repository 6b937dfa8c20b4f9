package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/everydev1618/gochat/dsl"
)

var (
	validateStrict  bool
	validateVerbose bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <script>",
	Short: "Check a conversation script",
	Long: `Parse a script and report problems.

Parse errors always fail. Structural findings (undefined targets,
unbound placeholders, unmatched Unlock and so on) are warnings unless
--strict is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat findings as errors")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "list the steps")
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig("warn")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	script, err := loadScript(args[0], logger)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	findings := dsl.Validate(script)
	for i, f := range findings {
		fmt.Fprintf(out, "  %d. %s\n", i+1, f)
	}

	if validateVerbose {
		fmt.Fprintf(out, "module %q\n", script.Module)
		for _, name := range script.Order {
			step, _ := script.Step(name)
			fmt.Fprintf(out, "  %-20s %d action(s), line %d\n", name, len(step.Actions), step.Line)
		}
	}

	if validateStrict && len(findings) > 0 {
		return fmt.Errorf("%d problem(s) found", len(findings))
	}
	fmt.Fprintf(out, "✓ %s is valid (%d steps, %d warning(s))\n", args[0], len(script.Steps), len(findings))
	return nil
}
