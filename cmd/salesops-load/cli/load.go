package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siddha-avenue/salesops/internal/ingest"
)

// SalesLoader loads an extract file into the sales store.
type SalesLoader interface {
	LoadFile(ctx context.Context, path, sheet string) (ingest.Result, error)
}

// LoadCLI runs the sales and targets load commands.
type LoadCLI struct {
	sales   SalesLoader
	targets ingest.TargetUploader
}

// NewLoadCLI constructs the load helpers.
func NewLoadCLI(sales SalesLoader, targets ingest.TargetUploader) *LoadCLI {
	return &LoadCLI{sales: sales, targets: targets}
}

// LoadOptions configures one load command.
type LoadOptions struct {
	Path       string
	Sheet      string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *LoadOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	o.Path = strings.TrimSpace(o.Path)
}

// SalesCommand loads a sales extract and returns the process exit code.
func (c *LoadCLI) SalesCommand(ctx context.Context, opts LoadOptions) int {
	opts.defaults()
	if opts.Path == "" {
		fmt.Fprintln(opts.Stderr, "load sales: file path is required")
		return 2
	}
	if c == nil || c.sales == nil {
		fmt.Fprintln(opts.Stderr, "load sales: loader not configured")
		return 1
	}
	res, err := c.sales.LoadFile(ctx, opts.Path, opts.Sheet)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "load sales: %v\n", err)
		if res.Inserted > 0 {
			fmt.Fprintf(opts.Stderr, "load sales: %d rows were stored before the failure\n", res.Inserted)
		}
		return 1
	}
	if opts.JSONOutput {
		return writeJSON(opts, res)
	}
	fmt.Fprintf(opts.Stdout, "loaded %d rows from %s in %d batches\n", res.Inserted, res.Source, len(res.Batches))
	return 0
}

// TargetsCommand loads a target sheet as one batch.
func (c *LoadCLI) TargetsCommand(ctx context.Context, opts LoadOptions) int {
	opts.defaults()
	if opts.Path == "" {
		fmt.Fprintln(opts.Stderr, "load targets: file path is required")
		return 2
	}
	if c == nil || c.targets == nil {
		fmt.Fprintln(opts.Stderr, "load targets: uploader not configured")
		return 1
	}
	receipt, err := ingest.LoadTargetsFile(ctx, c.targets, opts.Path, opts.Sheet)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "load targets: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		return writeJSON(opts, receipt)
	}
	fmt.Fprintf(opts.Stdout, "stored %d targets in batch %s\n", receipt.Stored, receipt.BatchID)
	return 0
}

func writeJSON(opts LoadOptions, v any) int {
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(opts.Stderr, "encode output: %v\n", err)
		return 1
	}
	return 0
}
