//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/crashrollup"
	"github.com/farcloser/crashrollup/internal/config"
	"github.com/farcloser/crashrollup/internal/discovery"
	"github.com/farcloser/crashrollup/internal/loader"
	"github.com/farcloser/crashrollup/internal/output"
)

func aggregateCommand() *cli.Command {
	return &cli.Command{
		Name:  "aggregate",
		Usage: "Aggregate crash bucket quality from summary JSON files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file providing defaults for the other flags",
				Sources: cli.EnvVars("CRASHROLLUP_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Directory containing summary files",
				Value:   ".",
				Sources: cli.EnvVars("CRASHROLLUP_ROOT"),
			},
			&cli.StringFlag{
				Name:    "pattern",
				Usage:   "Glob pattern for summary files",
				Value:   discovery.DefaultPattern,
				Sources: cli.EnvVars("CRASHROLLUP_PATTERN"),
			},
			&cli.BoolFlag{
				Name:    "non-recursive",
				Usage:   "Search only the root directory (default: recursive)",
				Sources: cli.EnvVars("CRASHROLLUP_NON_RECURSIVE"),
			},
			&cli.IntFlag{
				Name:    "top",
				Usage:   "How many top buckets to print",
				Value:   20,
				Sources: cli.EnvVars("CRASHROLLUP_TOP"),
			},
			&cli.StringFlag{
				Name:    "out-json",
				Usage:   "Optional output path to save the aggregated report JSON",
				Sources: cli.EnvVars("CRASHROLLUP_OUT_JSON"),
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent file readers",
				Sources: cli.EnvVars("CRASHROLLUP_WORKERS"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Summary output format: console, json, markdown",
				Value:   "console",
				Sources: cli.EnvVars("CRASHROLLUP_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "markdown",
				Usage:   "Render the bucket table as Markdown",
				Sources: cli.EnvVars("CRASHROLLUP_MARKDOWN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			configureLogging(cmd)

			if cmd.NArg() != 0 {
				return fmt.Errorf("%w: got %d", errUnexpectedArgs, cmd.NArg())
			}

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			return runAggregate(ctx, cfg)
		},
	}
}

// resolveConfig layers explicitly set flags over the config file over built-in defaults.
func resolveConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}

	if cmd.IsSet("pattern") {
		cfg.Pattern = cmd.String("pattern")
	}

	if cmd.IsSet("non-recursive") {
		recursive := !cmd.Bool("non-recursive")
		cfg.Recursive = &recursive
	}

	if cmd.IsSet("top") {
		cfg.Top = cmd.Int("top")
	}

	if cmd.IsSet("out-json") {
		cfg.OutJSON = cmd.String("out-json")
	}

	if cmd.IsSet("workers") {
		cfg.Workers = cmd.Int("workers")
	}

	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}

	if cmd.IsSet("markdown") {
		cfg.Markdown = cmd.Bool("markdown")
	}

	cfg.Top = max(cfg.Top, 1)
	cfg.Workers = max(cfg.Workers, 1)

	return cfg, nil
}

func runAggregate(ctx context.Context, cfg *config.Config) error {
	files, err := discovery.Discover(cfg.Root, cfg.Pattern, cfg.IsRecursive())
	if err != nil {
		return fmt.Errorf("scanning root: %w", err)
	}

	loaded, err := loader.Load(ctx, files, cfg.Workers)
	if err != nil {
		return err
	}

	if len(loaded.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d of %d files that are not valid summaries\n", len(loaded.Skipped), loaded.Found)
	}

	acc, err := crashrollup.AccumulateParallel(ctx, loaded.Records, cfg.Workers)
	if err != nil {
		return err
	}

	report := crashrollup.Assemble(acc, crashrollup.Source{
		InputRoot:   cfg.Root,
		Pattern:     cfg.Pattern,
		Recursive:   cfg.IsRecursive(),
		FilesFound:  loaded.Found,
		FilesParsed: loaded.Parsed,
	})

	if err := printReport(report, cfg.Top, cfg.Format, cfg.Markdown); err != nil {
		return err
	}

	if cfg.OutJSON != "" {
		if err := output.WriteJSON(cfg.OutJSON, report); err != nil {
			return err
		}

		notice(cfg.Format, "\nWrote: %s\n", cfg.OutJSON)
	}

	return nil
}
