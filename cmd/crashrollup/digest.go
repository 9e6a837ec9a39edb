//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/crashrollup/internal/output"
)

var (
	errDigestArgs     = errors.New("expected exactly one argument: path to report.json")
	errUnexpectedArgs = errors.New("unexpected positional arguments")
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Print the bucket table of a saved aggregate report",
		ArgsUsage: "<report.json>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "How many top buckets to print",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "Show every counter of a single bucket",
			},
			&cli.BoolFlag{
				Name:  "missing",
				Usage: "Show every counter of the bucket of summaries without a crash bucket key",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Summary output format: console, json, markdown",
				Value:   "console",
			},
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Render the bucket table as Markdown",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			configureLogging(cmd)

			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errDigestArgs, cmd.NArg())
			}

			report, err := output.ReadJSON(cmd.Args().First())
			if err != nil {
				return err
			}

			if cmd.Bool("missing") {
				bucket, err := output.FindMissingBucket(report)
				if err != nil {
					return err
				}

				return printBucket(bucket, cmd.String("format"))
			}

			if key := cmd.String("bucket"); key != "" {
				bucket, err := output.FindBucket(report, key)
				if err != nil {
					return err
				}

				return printBucket(bucket, cmd.String("format"))
			}

			return printReport(report, max(cmd.Int("top"), 1), cmd.String("format"), cmd.Bool("markdown"))
		},
	}
}
