//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/crashrollup"
	tables "github.com/farcloser/crashrollup/internal/format"
	"github.com/farcloser/crashrollup/internal/output"
)

const jsonFormat = "json"

// notice writes a human oriented line. It goes to stderr when stdout carries JSON.
func notice(formatName, msg string, args ...any) {
	out := os.Stdout
	if formatName == jsonFormat {
		out = os.Stderr
	}

	fmt.Fprintf(out, msg, args...)
}

// printReport prints the global summary with the selected formatter, followed by the top buckets table.
// With the json format the buckets are part of the formatter payload and no table is printed.
func printReport(report *crashrollup.Report, top int, formatName string, markdown bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	meta := output.SummaryToMap(report)
	if formatName == jsonFormat {
		meta["buckets"] = output.BucketRows(report, top)
	}

	data := &format.Data{
		Object: report.InputRoot,
		Meta:   meta,
	}

	if err := formatter.PrintAll([]*format.Data{data}, os.Stdout); err != nil {
		return err
	}

	if formatName == jsonFormat {
		return nil
	}

	mode := tables.ASCII
	if markdown {
		mode = tables.Markdown
	}

	fmt.Println()
	fmt.Println("Top buckets:")
	fmt.Println(output.BucketTable(report, top, mode).String())

	return nil
}

func printBucket(bucket *crashrollup.BucketReport, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	data := &format.Data{
		Object: bucket.CrashBucketKey,
		Meta:   output.BucketToMap(bucket),
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}
