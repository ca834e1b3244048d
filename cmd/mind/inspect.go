package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/cosmicmind/internal/continuity"
	"github.com/danielpatrickdp/cosmicmind/internal/replay"
)

// #region inspect

func runInspect(cmd *cobra.Command, args []string) error {
	what := "summary"
	if len(args) == 1 {
		what = args[0]
	}

	mind, archive, err := openMindReadOnly(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}
	sh := newShell(mind, nil, cmd.OutOrStdout())
	sh.exec(context.Background(), what)
	return nil
}

// #endregion inspect

// #region history

func runHistory(cmd *cobra.Command, _ []string) error {
	path := cfg.ArchivePath()
	if path == "" {
		return fmt.Errorf("history archive disabled (storage.archive=false)")
	}
	archive, err := continuity.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	out := cmd.OutOrStdout()
	sh := &shell{archive: archive, out: out}
	sh.history(historyLimit)

	refs, err := archive.Reflections(historyLimit)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		fmt.Fprintln(out, "\nReflections:")
	}
	for _, r := range refs {
		fmt.Fprintf(out, "- cycle %d [%s] %s (%s)\n", r.Cycle, r.VersionID, r.Text, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// #endregion history

// #region replay

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if f.Description != "" {
		fmt.Fprintf(out, "Fixture: %s\n\n", f.Description)
	}

	results := replay.Replay(cmd.Context(), f.Config.ToEngineConfig(), f.Steps)

	fmt.Fprintf(out, "%-16s  %6s  %-5s  %-28s  %s\n", "Step", "Frames", "Cycle", "Concepts", "Intents")
	for _, r := range results {
		cycled := "-"
		if r.Cycled {
			cycled = "yes"
		}
		fmt.Fprintf(out, "%-16s  %6d  %-5s  %-28v  %v\n", r.StepID, r.Ingested, cycled, r.Concepts, r.Intents)
	}

	s := replay.Summarize(results)
	fmt.Fprintf(out, "\nsteps=%d cycles=%d frames=%d truths=%d actions=%d invariant_failures=%d\n",
		s.TotalSteps, s.Cycles, s.FramesIngested, s.TruthsDerived, s.Actions, s.InvariantFailures)

	mismatches := replay.Check(results, f.ExpectedResults)
	for _, m := range mismatches {
		fmt.Fprintf(out, "MISMATCH %s\n", m)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d expectation(s) not met", len(mismatches))
	}
	return nil
}

// #endregion replay
