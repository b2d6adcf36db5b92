package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
)

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	db, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	deps, closeDeps, err := a.offlineDeps(ctx)
	defer closeDeps()
	if err != nil {
		return err
	}
	svc := a.buildServices(db, deps)

	source := sourceDocument
	if source == "" && args[0] != "-" {
		source = filepath.Base(args[0])
	}

	result, err := svc.seeding.Seed(ctx, models.SeedRequest{
		Revision:       revisionLabel,
		SourceDocument: source,
		Document:       text,
		ExpectedCodes:  expectedCodes,
		ExpectedRanges: expectedRanges,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "revision %q already seeded (%d codes, %d ranges); skipped\n",
			result.Revision.Revision, result.Revision.CodeCount, result.Revision.RangeCount)
		return nil
	}
	fmt.Fprintf(out, "seeded revision %q as id %d: %d codes, %d ranges, %d warnings\n",
		result.Revision.Revision, result.Revision.ID, result.Revision.CodeCount, result.Revision.RangeCount, len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  warning [%s] %s (line %d): %s\n", w.Kind, w.Code, w.Line, w.Message)
	}
	return nil
}
