package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// FormatYAML is the default for terminals.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatRaw writes strings and byte slices verbatim.
	FormatRaw OutputFormat = "raw"
)

// OutputOptions configures Output.
type OutputOptions struct {
	// Format is the output format. Empty means yaml.
	Format OutputFormat

	// File is the output file path; empty writes to stdout.
	File string

	// Writer overrides File and stdout when set.
	Writer io.Writer

	// Query is an optional jq filter applied to the result before
	// rendering.
	Query string
}

// Output renders a result to the configured destination.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Query != "" {
		filtered, err := ApplyQuery(result, opts.Query)
		if err != nil {
			return err
		}
		result = filtered
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML, "":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatRaw:
		switch v := result.(type) {
		case []byte:
			_, err := w.Write(v)
			return err
		case string:
			_, err := io.WriteString(w, v)
			return err
		default:
			return Output(result, OutputOptions{Format: FormatYAML, Writer: w})
		}
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}
