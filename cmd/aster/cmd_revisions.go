package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func runRevisionsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp()
	if err != nil {
		return err
	}
	db, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	revisions, err := a.buildServices(db, serviceDeps{}).seeding.ListRevisions(ctx)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, revisions)
}

func runRevisionsActivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid revision id %q", args[0])
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

	revision, err := a.buildServices(db, deps).seeding.ActivateRevision(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "revision %q (id %d) is now current\n", revision.Revision, revision.ID)
	return nil
}
