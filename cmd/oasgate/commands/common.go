// Package commands provides the cobra commands of the oasgate CLI.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasgate"
	"github.com/erraggy/oasgate/parser"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrValidationFailed is returned by commands whose report already explains
// the failure. main exits with status 1 without printing it again.
var ErrValidationFailed = errors.New("validation failed")

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data to w as indented JSON or YAML.
func OutputStructured(w io.Writer, data any, format string) error {
	var out []byte
	var err error

	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		out, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(w, "%s\n", out)
	return nil
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// OutputSpecHeader writes the common specification header.
func OutputSpecHeader(w io.Writer, specPath string, result *parser.ParseResult) {
	Writef(w, "oasgate version: %s\n", oasgate.Version())
	Writef(w, "Specification: %s\n", specPath)
	if result.Converted {
		Writef(w, "OAS Version: %s (converted from %s)\n", result.Version, result.SourceVersion)
		return
	}
	Writef(w, "OAS Version: %s\n", result.Version)
}

// loadDocument parses the document at path.
func loadDocument(path string) (*parser.ParseResult, error) {
	result, err := parser.ParseWithOptions(parser.WithFilePath(path))
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return result, nil
}
