// Package loader reads and parses discovered summary files with bounded concurrency.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/farcloser/primordium/fault"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/crashrollup"
)

var errInvalidEncoding = errors.New("not valid UTF-8")

// Skipped is a discovered file that could not be handed to the accumulator.
type Skipped struct {
	Path string
	Err  error
}

// Result holds the parsed records, in discovery order.
type Result struct {
	Records []crashrollup.SummaryRecord
	Skipped []Skipped
	// Found is the number of discovered files. Parsed is len(Records).
	Found  int
	Parsed int
}

type outcome struct {
	record crashrollup.SummaryRecord
	err    error
}

// Load reads every path with at most workers concurrent reads.
// Files that cannot be read or are not a JSON object are skipped, never returned as an error.
// Only context cancellation fails the load.
func Load(ctx context.Context, paths []string, workers int) (*Result, error) {
	slog.Debug("loader.Load", "files", len(paths), "workers", workers)

	outcomes := make([]outcome, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(workers, 1))

	for idx, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			outcomes[idx].record, outcomes[idx].err = readRecord(path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}

	result := &Result{
		Records: make([]crashrollup.SummaryRecord, 0, len(paths)),
		Found:   len(paths),
	}

	for idx, out := range outcomes {
		if out.err != nil {
			slog.Debug("loader.Load", "skipping", paths[idx], "error", out.err)
			result.Skipped = append(result.Skipped, Skipped{Path: paths[idx], Err: out.err})

			continue
		}

		result.Records = append(result.Records, out.record)
	}

	result.Parsed = len(result.Records)

	return result, nil
}

func readRecord(path string) (crashrollup.SummaryRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified summary files
	if err != nil {
		return crashrollup.SummaryRecord{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if !utf8.Valid(data) {
		return crashrollup.SummaryRecord{}, errInvalidEncoding
	}

	return crashrollup.DecodeRecord(data)
}
