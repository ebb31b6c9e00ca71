package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// CheckFlags contains flags for the check command
type CheckFlags struct {
	Format string
	Quiet  bool
}

// CheckResult is the structured report of the check command.
type CheckResult struct {
	Specification string                `json:"specification" yaml:"specification"`
	Version       string                `json:"version" yaml:"version"`
	SourceVersion string                `json:"sourceVersion" yaml:"sourceVersion"`
	Converted     bool                  `json:"converted" yaml:"converted"`
	Valid         bool                  `json:"valid" yaml:"valid"`
	Paths         int                   `json:"paths" yaml:"paths"`
	Operations    int                   `json:"operations" yaml:"operations"`
	Errors        []oaserrors.Violation `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings      []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewCheckCommand returns the check command.
func NewCheckCommand() *cobra.Command {
	flags := &CheckFlags{}
	cmd := &cobra.Command{
		Use:   "check [flags] <file>",
		Short: "Load and compile an OpenAPI document",
		Long: `Load an OpenAPI document, check it against the OpenAPI meta-schema and
compile it into the validation model the gateway uses. Every problem found
is reported, not only the first.

Exit Codes:
  0    The document compiles
  1    The document is invalid or could not be read`,
		Example: `  oasgate check openapi.yaml
  oasgate check --format json swagger.json | jq '.errors'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatText, "output format: text, json, or yaml")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress the text report, only set the exit status")
	return cmd
}

// CheckDocument parses and compiles the document at path. Document problems
// are reported in the result; only I/O and decoding failures are errors.
func CheckDocument(path string) (*CheckResult, error) {
	parsed, err := loadDocument(path)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		Specification: path,
		Version:       parsed.Version,
		SourceVersion: parsed.SourceVersion,
		Converted:     parsed.Converted,
		Warnings:      parsed.Warnings,
	}

	spec, err := httpvalidator.Compile(parsed)
	if err != nil {
		var invalid *oaserrors.InvalidDocumentError
		if !errors.As(err, &invalid) {
			return nil, fmt.Errorf("compiling document: %w", err)
		}
		result.Errors = invalid.Violations
		return result, nil
	}

	result.Valid = true
	result.Paths = len(spec.Templates())
	result.Operations = len(spec.Operations())
	return result, nil
}

func runCheck(cmd *cobra.Command, path string, flags *CheckFlags) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	start := time.Now()
	result, err := CheckDocument(path)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if flags.Format != FormatText {
		if err := OutputStructured(cmd.OutOrStdout(), result, flags.Format); err != nil {
			return err
		}
	} else if !flags.Quiet {
		outputCheckText(cmd, result, elapsed)
	}

	if !result.Valid {
		return ErrValidationFailed
	}
	return nil
}

func outputCheckText(cmd *cobra.Command, result *CheckResult, elapsed time.Duration) {
	w := cmd.ErrOrStderr()
	OutputSpecHeader(w, result.Specification, &parser.ParseResult{
		Version:       result.Version,
		SourceVersion: result.SourceVersion,
		Converted:     result.Converted,
	})
	if result.Valid {
		Writef(w, "Paths: %d\n", result.Paths)
		Writef(w, "Operations: %d\n", result.Operations)
	}
	Writef(w, "Check Time: %v\n\n", elapsed)

	if len(result.Errors) > 0 {
		Writef(w, "Errors (%d):\n", len(result.Errors))
		for _, v := range result.Errors {
			Writef(w, "  %s\n", v.String())
		}
		Writef(w, "\n")
	}
	if len(result.Warnings) > 0 {
		Writef(w, "Warnings (%d):\n", len(result.Warnings))
		for _, msg := range result.Warnings {
			Writef(w, "  %s\n", msg)
		}
		Writef(w, "\n")
	}

	if result.Valid {
		Writef(w, "✓ Document compiled")
		if len(result.Warnings) > 0 {
			Writef(w, " with %d warning(s)", len(result.Warnings))
		}
		Writef(w, "\n")
		return
	}
	Writef(w, "✗ Check failed: %d error(s)\n", len(result.Errors))
}
