package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/curated"
)

func runCuratedImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	// validate before touching the database
	dataset, err := curated.ParseDataset(f)
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

	svc := a.buildServices(db, serviceDeps{})
	result, err := svc.curated.Import(ctx, dataset)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d configurations, %d serial effectivities, %d part effectivities\n",
		result.Configurations, result.SerialEffectivities, result.PartEffectivities)
	return nil
}
