package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/pipeline"
)

type buildFlags struct {
	severities    []string
	minConfidence float64
	host          string
	technique     string
	sort          string
	pretty        bool
}

func newBuildCmd(a *app) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build [findings.json]",
		Short: "Build a graph from a findings file and print it as JSON",
		Long: `Build reads findings as JSON from the given file, or from stdin when no
file (or "-") is given. The input is either an array of findings or an
object with a "findings" array.`,
		Example: `  huntgraph build findings.json --pretty
  cat findings.json | huntgraph build --severity critical --severity high
  huntgraph build findings.json --sort severity`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, a, flags, args)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.severities, "severity", "s", nil, "keep findings with these severities (repeatable)")
	cmd.Flags().Float64Var(&flags.minConfidence, "min-confidence", 0, "drop findings below this confidence")
	cmd.Flags().StringVar(&flags.host, "host", "", "keep findings that affect this host")
	cmd.Flags().StringVar(&flags.technique, "technique", "", "keep findings that reference this MITRE technique")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "lay findings out by severity or confidence instead of input order")
	cmd.Flags().BoolVar(&flags.pretty, "pretty", false, "indent the JSON output")

	return cmd
}

func (f *buildFlags) filter() (*finding.Filter, error) {
	filter := &finding.Filter{
		MinConfidence: f.minConfidence,
		Host:          f.host,
		Technique:     f.technique,
		Sort:          f.sort,
	}
	for _, s := range f.severities {
		severity, err := finding.ParseSeverity(s)
		if err != nil {
			return nil, fmt.Errorf("--severity: %w", err)
		}
		filter.Severities = append(filter.Severities, severity)
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("--sort: %w", err)
	}
	if filter.IsZero() {
		return nil, nil
	}
	return filter, nil
}

func runBuild(cmd *cobra.Command, a *app, flags *buildFlags, args []string) error {
	if flags.minConfidence < 0 || flags.minConfidence > 1 {
		return fmt.Errorf("--min-confidence must be between 0 and 1 (got: %v)", flags.minConfidence)
	}

	filter, err := flags.filter()
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open findings file: %w", err)
		}
		defer file.Close()
		in = file
	}

	findings, err := readFindings(in)
	if err != nil {
		return err
	}

	builder := &pipeline.Builder{Logger: a.logger}
	out, err := builder.Build(cmd.Context(), pipeline.SourceCLI, findings, filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if flags.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out.Graph)
}

// readFindings decodes either a JSON array of findings or an object with a
// "findings" array.
func readFindings(r io.Reader) ([]finding.Finding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no findings input")
	}

	if data[0] == '[' {
		var findings []finding.Finding
		if err := json.Unmarshal(data, &findings); err != nil {
			return nil, fmt.Errorf("failed to parse findings: %w", err)
		}
		return findings, nil
	}

	var envelope struct {
		Findings *[]finding.Finding `json:"findings"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse findings: %w", err)
	}
	if envelope.Findings == nil {
		return nil, fmt.Errorf(`input object has no "findings" array`)
	}
	return *envelope.Findings, nil
}
