// Package main provides the command-line entry point for filtering a product workbook.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/prodfilter/backend/config"
	"github.com/prodfilter/backend/internal/domain"
	"github.com/prodfilter/backend/internal/infrastructure/storage"
	"github.com/prodfilter/backend/internal/usecase"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitRuntimeError = 3
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries the process exit code for a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// runOptions holds the flags of the run command
type runOptions struct {
	workbook     string
	source       string
	resultPolicy string
	resultName   string
	minPrice     string
	maxPrice     string
	color        string
	size         string
	gender       string
	preview      bool
	jsonOutput   bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		return ExitConfigError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:   "prodfilter",
		Short: "ProdFilter - filter a product sheet by price, color, size and gender",
		Long: `ProdFilter reads the product sheet, keeps the rows matching every given
criterion, and writes them to a new result sheet.

Configuration comes from config.yaml, .env and PRODFILTER_* environment
variables; flags override it.

Examples:
  # Blue products from 20 upwards
  prodfilter run --workbook products.xlsx --min-price 20 --color blue

  # Overwrite a fixed "Results" sheet
  prodfilter run --workbook products.xlsx --result-policy fixed --gender women`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if quiet {
				log.SetOutput(io.Discard)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable per-row debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")

	root.AddCommand(newRunCmd(&verbose))
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd(verbose *bool) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter the product sheet and write a result sheet",
		Long: `Filter the product sheet and write the matching rows to a result sheet.

Empty or omitted text criteria match everything. Prices are inclusive.

Exit codes:
  0 - Result sheet written
  1 - Configuration errors
  3 - Runtime errors (missing sheet, missing column, write failure)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, opts, *verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.workbook, "workbook", "", "Path to the .xlsx workbook (selects excel storage)")
	flags.StringVar(&opts.source, "source", "", "Name of the product sheet (default from config, Products)")
	flags.StringVar(&opts.resultPolicy, "result-policy", "", "Result sheet naming: timestamp or fixed")
	flags.StringVar(&opts.resultName, "result-name", "", "Result sheet name for the fixed policy")
	flags.StringVar(&opts.minPrice, "min-price", "", "Lowest SALE_PRICE to keep")
	flags.StringVar(&opts.maxPrice, "max-price", "", "Highest SALE_PRICE to keep")
	flags.StringVar(&opts.color, "color", "", "COLOR to keep")
	flags.StringVar(&opts.size, "size", "", "SIZE to keep")
	flags.StringVar(&opts.gender, "gender", "", "GENDER to keep")
	flags.BoolVar(&opts.preview, "preview", false, "Print matches without writing a result sheet")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the full outcome as JSON")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prodfilter %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate)
		},
	}
}

func runFilter(cmd *cobra.Command, opts *runOptions, verbose bool) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		return &exitError{code: ExitRuntimeError, err: err}
	}
	defer backend.Close()

	service := usecase.NewFilterService(backend.Source, backend.Sink, usecase.FilterServiceConfig{
		SourceTable:        cfg.Table.Source,
		ResultPolicy:       cfg.Table.ResultPolicy,
		ResultName:         cfg.Table.ResultName,
		EnableDebugLogging: verbose,
	})

	raw := criteriaFromFlags(cmd, opts)

	var outcome *domain.FilterOutcome
	if opts.preview {
		outcome, err = service.Preview(ctx, raw)
	} else {
		outcome, err = service.FilterProducts(ctx, raw)
	}
	if err != nil {
		return &exitError{code: ExitRuntimeError, err: err}
	}

	return printOutcome(cmd.OutOrStdout(), outcome, opts.jsonOutput)
}

// loadConfig loads configuration and applies flag overrides
func loadConfig(opts *runOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.workbook != "" {
		cfg.Storage.Type = config.StorageExcel
		cfg.Storage.WorkbookPath = opts.workbook
	}
	if opts.source != "" {
		cfg.Table.Source = opts.source
	}
	if opts.resultPolicy != "" {
		cfg.Table.ResultPolicy = opts.resultPolicy
	}
	if opts.resultName != "" {
		cfg.Table.ResultName = opts.resultName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// criteriaFromFlags passes only the flags the user set; unset criteria stay absent
func criteriaFromFlags(cmd *cobra.Command, opts *runOptions) *domain.RawCriteria {
	raw := &domain.RawCriteria{}
	flags := cmd.Flags()

	if flags.Changed("min-price") {
		raw.MinPrice = opts.minPrice
	}
	if flags.Changed("max-price") {
		raw.MaxPrice = opts.maxPrice
	}
	if flags.Changed("color") {
		raw.Color = opts.color
	}
	if flags.Changed("size") {
		raw.Size = opts.size
	}
	if flags.Changed("gender") {
		raw.Gender = opts.gender
	}
	return raw
}

func printOutcome(w io.Writer, outcome *domain.FilterOutcome, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(outcome)
	}

	fmt.Fprintln(w, outcome.Message)
	fmt.Fprintf(w, "Matched %d of %d products\n", outcome.Matched, outcome.Total)
	if outcome.Summary.Count > 0 {
		fmt.Fprintf(w, "Prices: min %.2f, max %.2f, mean %.2f, median %.2f\n",
			outcome.Summary.Min, outcome.Summary.Max, outcome.Summary.Mean, outcome.Summary.Median)
	}
	return nil
}
