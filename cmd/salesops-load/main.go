// Command salesops-load runs migrations, loads sales extracts and target
// sheets, and manages report jobs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/siddha-avenue/salesops/cmd/salesops-load/cli"
	"github.com/siddha-avenue/salesops/internal/app"
	"github.com/siddha-avenue/salesops/internal/ingest"
	"github.com/siddha-avenue/salesops/internal/platform/db"
	"github.com/siddha-avenue/salesops/internal/targets"
	"github.com/siddha-avenue/salesops/jobs"
)

const usage = `usage: salesops-load <command> [flags]

commands:
  migrate                         apply database migrations
  sales [--sheet S] [--chunk N] FILE   load a sales extract (.csv, .xlsx)
  targets [--sheet S] FILE        load a target sheet as one batch
  jobs trigger <warmup|bump>      enqueue a report job
  jobs stats                      print default queue statistics
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := app.NewLogger(cfg)

	switch args[0] {
	case "migrate":
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			fmt.Fprintf(stderr, "migrate: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "migrations applied")
		return 0
	case "sales", "targets":
		return runLoad(ctx, cfg, logger, args[0], args[1:], stdout, stderr)
	case "jobs":
		return runJobs(ctx, cfg, args[1:], stdout, stderr)
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
}

func runLoad(ctx context.Context, cfg *app.Config, logger *slog.Logger, kind string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(kind, flag.ContinueOnError)
	fs.SetOutput(stderr)
	sheet := fs.String("sheet", "", "worksheet name for xlsx files (default first sheet)")
	chunk := fs.Int("chunk", ingest.DefaultChunkSize, "rows per insert batch")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "open stores: %v\n", err)
		return 1
	}
	defer stores.Close()

	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	loader := ingest.NewLoader(stores.Sales, client, logger).WithChunkSize(*chunk)
	uploader := targets.NewService(stores.Targets, client, logger)
	cmd := cli.NewLoadCLI(loader, uploader)
	opts := cli.LoadOptions{Path: fs.Arg(0), Sheet: *sheet, JSONOutput: *asJSON, Stdout: stdout, Stderr: stderr}
	if kind == "targets" {
		return cmd.TargetsCommand(ctx, opts)
	}
	return cmd.SalesCommand(ctx, opts)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	c := cli.NewJobsCLI(cfg.RedisAddr)
	defer c.Close()

	switch args[0] {
	case "trigger":
		if len(args) != 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "jobs stats: %v\n", err)
			return 1
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(stderr, "jobs stats: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
}
