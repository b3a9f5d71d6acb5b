package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subseg/internal/config"
	"subseg/internal/history"
	"subseg/internal/pipeline"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir     string
		workers    int
		noPreMerge bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "segment <frame-dir>",
		Short: "Group a directory of extracted frames into subtitle segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if strings.TrimSpace(outDir) != "" {
				expanded, err := config.ExpandPath(outDir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}
			if cmd.Flags().Changed("workers") {
				cfg.Grouping.Workers = workers
			}
			if noPreMerge {
				cfg.Grouping.PreMerge = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve frame directory: %w", err)
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			var report *pipeline.Report
			err = ctx.withHistory(func(store *history.Store) error {
				runner, err := pipeline.New(&cfg, pipeline.WithHistory(store), pipeline.WithLogger(logger))
				if err != nil {
					return err
				}
				report, err = runner.Run(cmd.Context(), source)
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printReport(cmd, report, cfg.Grouping.PreMerge)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output root (overrides paths.output_dir)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel pre-merge workers (overrides grouping.workers)")
	cmd.Flags().BoolVar(&noPreMerge, "no-premerge", false, "Skip the pairwise pre-merge pass")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *pipeline.Report, preMerged bool) {
	out := cmd.OutOrStdout()
	style := newStyler(out)

	fmt.Fprintln(out, style.header("Segmentation"))
	fmt.Fprintln(out, renderField("Run", report.RunID))
	fmt.Fprintln(out, renderField("Source", report.Source))
	frames := formatCount(report.Frames)
	if preMerged {
		frames += " (pre-merged to " + formatCount(report.PreMerged) + ")"
	}
	fmt.Fprintln(out, renderField("Frames", frames))
	fmt.Fprintln(out, renderField("Output", report.Output))
	fmt.Fprintln(out, renderField("Elapsed", formatElapsed(report.Elapsed)))

	kind, message := statusOK, fmt.Sprintf("%s segments", formatCount(len(report.Segments)))
	if len(report.Segments) == 0 {
		kind, message = statusWarn, "no subtitle segments found"
	}
	fmt.Fprintln(out, style.status("Result", kind, message))

	if len(report.Segments) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, segmentTable(report.Segments).render())
}

func segmentTable(segments []pipeline.SegmentResult) tableSpec {
	spec := tableSpec{
		headers: []string{"#", "Start", "End", "Frames", "Image"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	}
	for _, seg := range segments {
		spec.add(
			strconv.Itoa(seg.Index),
			formatTimecode(seg.Start()),
			formatTimecode(seg.End()),
			strconv.Itoa(len(seg.Frames)),
			baseName(seg.Image),
		)
	}
	return spec
}
