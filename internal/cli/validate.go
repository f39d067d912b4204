package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// ValidationResult holds taxonomy validation results.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Events      int      `json:"events"`
	Properties  int      `json:"properties"`
	ContentHash string   `json:"content_hash,omitempty"`
	Renamed     []string `json:"renamed_properties,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <taxonomy.yaml>",
		Short: "Validate an event taxonomy",
		Long: `Parse and validate a taxonomy file without generating data.

Reports the event and property counts, the content hash used for rule
caching, and any property names that generation would rename to satisfy
ThinkingEngine's naming rules.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error("E_TAXONOMY", err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading taxonomy", err)
	}

	// Decode the raw document before Parse sanitizes it, so the report
	// can show which names generation will rewrite.
	var raw taxonomy.Taxonomy
	renamed := []string{}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		for _, ev := range raw.Events {
			for _, p := range ev.Properties {
				if !taxonomy.IsValidName(p.Name) && !taxonomy.IsPresetName(p.Name) {
					renamed = append(renamed,
						fmt.Sprintf("%s.%s -> %s", ev.Name, p.Name, taxonomy.SanitizeName(p.Name)))
				}
			}
		}
	}

	tax, err := taxonomy.Parse(data)
	if err != nil {
		result := ValidationResult{Renamed: renamed, Errors: []string{err.Error()}}
		if opts.Format == "json" {
			_ = formatter.Success(result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Invalid taxonomy: %v\n", err)
		}
		return NewExitError(ExitFailure, "taxonomy validation failed")
	}

	result := ValidationResult{
		Valid:       true,
		Events:      len(tax.Events),
		ContentHash: tax.ContentHash(),
		Renamed:     renamed,
	}
	for _, ev := range tax.Events {
		result.Properties += len(ev.Properties)
	}
	result.Properties += len(tax.CommonProperties) + len(tax.UserProperties)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Valid taxonomy: %d events, %d properties (hash %s)\n",
		result.Events, result.Properties, result.ContentHash)
	for _, r := range result.Renamed {
		fmt.Fprintf(formatter.Writer, "  renaming %s\n", r)
	}
	return nil
}
