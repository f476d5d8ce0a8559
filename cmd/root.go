package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/SamuelRCrider/rfq-scrub/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

const (
	auditRotationSize  = 10 * 1024 * 1024
	auditRetentionDays = 30
)

// failure marks an error raised after the command line was accepted
type failure struct {
	err error
}

func (f *failure) Error() string {
	return f.err.Error()
}

func (f *failure) Unwrap() error {
	return f.err
}

func fail(err error) error {
	return &failure{err: err}
}

// options holds the persistent flags shared by every command
type options struct {
	envFile      string
	auditLogPath string
	auditLevel   string
	patternsPath string

	stderr io.Writer
}

func (o *options) loadEnv() {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			fmt.Fprintf(o.stderr, "Warning: could not load env file %s: %v\n", o.envFile, err)
		}
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(o.stderr, "Warning: could not load .env: %v\n", err)
	}
}

// logger writes operational logs to stderr so stdout stays machine readable
func (o *options) logger() *log.Logger {
	return log.New(o.stderr, "[RFQ] ", log.LstdFlags)
}

func (o *options) patterns() (*core.PatternTable, error) {
	if o.patternsPath == "" {
		return core.DefaultPatternTable(), nil
	}
	table, err := core.LoadPatternTable(o.patternsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	return table, nil
}

// audit opens the audit log, or returns nil when none was requested
func (o *options) audit() (*core.AuditLogger, error) {
	level, err := core.ParseAuditLogLevel(o.auditLevel)
	if err != nil {
		return nil, err
	}
	if o.auditLogPath == "" {
		return nil, nil
	}
	logger, err := core.OpenAuditLogger(o.auditLogPath, level, auditRotationSize, auditRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return logger, nil
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stderr: stderr}

	root := &cobra.Command{
		Use:   "rfq-scrub",
		Short: "Extract and redact government solicitation summaries",
		Long: `rfq-scrub turns solicitation documents into structured summaries with an
external language model and strips agency names, contact details, federal
identifiers and locations before the summary is shared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.loadEnv()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file (default .env if present)")
	flags.StringVar(&opts.auditLogPath, "audit-log", "", "append JSONL audit events to this file")
	flags.StringVar(&opts.auditLevel, "audit-level", string(core.AuditLogLevelStandard), "audit detail: minimal, standard or verbose")
	flags.StringVar(&opts.patternsPath, "patterns", "", "YAML pattern table (default built-in table)")

	root.AddCommand(
		newParseCmd(opts),
		newRedactCmd(opts),
		newProcessCmd(opts),
		newPatternsCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string) int {
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var f *failure
		if errors.As(err, &f) {
			return ExitFailure
		}
		return ExitUsageError
	}
	return ExitSuccess
}
