package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"subseg/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded segmentation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, runTable(runs).render())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the segments produced by one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				segments, err := store.Segments(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						Run      *history.Run            `json:"run"`
						Segments []history.SegmentRecord `json:"segments"`
					}{run, segments})
				}
				printRun(cmd, run, segments)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func runTable(runs []history.Run) tableSpec {
	spec := tableSpec{
		headers: []string{"ID", "Source", "Started", "Elapsed", "Frames", "Segments", "Status"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	}
	for _, run := range runs {
		spec.add(
			shortID(run.ID),
			filepath.Base(run.SourceDir),
			formatWhen(run.StartedAt),
			formatElapsed(run.Duration()),
			formatCount(run.Frames),
			formatCount(run.SegmentCount),
			string(run.Status),
		)
	}
	return spec
}

func printRun(cmd *cobra.Command, run *history.Run, segments []history.SegmentRecord) {
	out := cmd.OutOrStdout()
	style := newStyler(out)

	fmt.Fprintln(out, style.header("Run "+shortID(run.ID)))
	fmt.Fprintln(out, renderField("ID", run.ID))
	fmt.Fprintln(out, renderField("Source", run.SourceDir))
	fmt.Fprintln(out, renderField("Output", dash(run.OutputDir)))
	fmt.Fprintln(out, renderField("Started", formatWhen(run.StartedAt)))
	fmt.Fprintln(out, renderField("Elapsed", formatElapsed(run.Duration())))
	fmt.Fprintln(out, renderField("Frames", formatCount(run.Frames)))
	fmt.Fprintln(out, renderField("Pre-merged", yesNo(run.PreMerged > 0)))

	switch run.Status {
	case history.StatusCompleted:
		fmt.Fprintln(out, style.status("Status", statusOK, formatCount(run.SegmentCount)+" segments"))
	case history.StatusFailed:
		fmt.Fprintln(out, style.status("Status", statusError, run.ErrorKind+": "+run.ErrorMessage))
		return
	default:
		fmt.Fprintln(out, style.status("Status", statusInfo, string(run.Status)))
		return
	}

	if len(segments) == 0 {
		return
	}
	spec := tableSpec{
		headers: []string{"#", "Start", "End", "Frames", "Image"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	}
	for _, seg := range segments {
		spec.add(
			strconv.Itoa(seg.Seq),
			formatTimecode(seg.Start),
			formatTimecode(seg.End),
			strconv.Itoa(seg.FrameCount),
			baseName(seg.ImagePath),
		)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, spec.render())
}
