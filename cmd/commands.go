package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rfq "github.com/SamuelRCrider/rfq-scrub"
	"github.com/SamuelRCrider/rfq-scrub/core"
	"github.com/SamuelRCrider/rfq-scrub/llm"
	"github.com/SamuelRCrider/rfq-scrub/utils"
)

// readInput reads the named file, or stdin when no file or "-" is given
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newPipeline wires a pipeline from the persistent flags. The returned
// close function releases the audit log.
func newPipeline(opts *options, completer llm.Completer, extractor *llm.ExtractorConfig) (*rfq.Pipeline, func(), error) {
	table, err := opts.patterns()
	if err != nil {
		return nil, nil, err
	}
	audit, err := opts.audit()
	if err != nil {
		return nil, nil, err
	}

	pipeline := rfq.NewPipeline(rfq.Config{
		Completer: completer,
		Extractor: extractor,
		Patterns:  table,
		Logger:    opts.logger(),
		Audit:     audit,
	})

	closer := func() {
		if audit != nil {
			audit.Close()
		}
	}
	return pipeline, closer, nil
}

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a model reply into a structured record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return fail(err)
			}
			rec := llm.NewResponseParser(opts.logger()).Parse(raw)
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

type redactOutput struct {
	RedactedContent  *core.RedactedRecord   `json:"redacted_content"`
	RedactionSummary utils.RedactionSummary `json:"redaction_summary"`
}

func newRedactCmd(opts *options) *cobra.Command {
	var lines bool

	cmd := &cobra.Command{
		Use:   "redact [file]",
		Short: "Redact a structured record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, closeAudit, err := newPipeline(opts, nil, nil)
			if err != nil {
				return err
			}
			defer closeAudit()

			raw, err := readInput(cmd, args)
			if err != nil {
				return fail(err)
			}
			var rec core.Record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return fail(err)
			}

			result, err := pipeline.ProcessRecord(cmd.Context(), &rec)
			if err != nil {
				return fail(err)
			}

			if lines {
				for _, line := range result.RedactionSummary.Lines() {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), redactOutput{
				RedactedContent:  result.RedactedContent,
				RedactionSummary: result.RedactionSummary,
			})
		},
	}
	cmd.Flags().BoolVar(&lines, "lines", false, "print one audit line per redaction instead of JSON")
	return cmd
}

// modelFlags selects the MCP server and tool used for extraction
type modelFlags struct {
	server string
	tool   string
	model  string
}

func (m *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.server, "server", "", "MCP server executable (default discovered from MCP_SERVER_PATH)")
	cmd.Flags().StringVar(&m.tool, "tool", "", "MCP tool that runs the model (default MCP_TOOL_NAME or rfq.extract)")
	cmd.Flags().StringVar(&m.model, "model", "", "model name passed to the tool (default MCP_MODEL)")
}

func (m *modelFlags) completer(opts *options) (*llm.MCPCompleter, *llm.ExtractorConfig, error) {
	defaults := llm.DefaultExtractorConfig()
	config := llm.LoadExtractorConfig(&llm.ExtractorConfig{
		ToolName:    m.tool,
		Model:       m.model,
		Temperature: defaults.Temperature,
		RetryCount:  defaults.RetryCount,
	})
	completer, err := llm.NewMCPCompleter(m.server, config, opts.logger())
	if err != nil {
		return nil, nil, err
	}
	return completer, config, nil
}

func newProcessCmd(opts *options) *cobra.Command {
	var model modelFlags

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Extract and redact a solicitation document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := readInput(cmd, args)
			if err != nil {
				return fail(err)
			}

			completer, config, err := model.completer(opts)
			if err != nil {
				return fail(err)
			}
			defer completer.Close()

			pipeline, closeAudit, err := newPipeline(opts, completer, config)
			if err != nil {
				return err
			}
			defer closeAudit()

			result, err := pipeline.ProcessDocument(cmd.Context(), document)
			if err != nil {
				return fail(err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	model.register(cmd)
	return cmd
}

func newPatternsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Print the effective pattern table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.patterns()
			if err != nil {
				return fail(err)
			}
			data, err := core.MarshalPatternConfig(table.Config())
			if err != nil {
				return fail(err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	var model modelFlags

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that an extraction model is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var completer llm.Completer
			mcpCompleter, config, err := model.completer(opts)
			if err != nil {
				opts.logger().Printf("MCP server unavailable: %v", err)
			} else {
				defer mcpCompleter.Close()
				completer = mcpCompleter
			}

			pipeline, closeAudit, err := newPipeline(opts, completer, config)
			if err != nil {
				return err
			}
			defer closeAudit()

			status := pipeline.Health()
			if err := writeJSON(cmd.OutOrStdout(), status); err != nil {
				return err
			}
			if status["status"] != "healthy" {
				return fail(fmt.Errorf("extractor %s", status["extractor"]))
			}
			return nil
		},
	}
	model.register(cmd)
	return cmd
}
