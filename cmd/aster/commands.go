package main

import (
	"github.com/spf13/cobra"
)

var (
	envFile        string
	outputFormat   string
	revisionLabel  string
	sourceDocument string
	expectedCodes  int
	expectedRanges int

	rootCmd = &cobra.Command{
		Use:           "aster",
		Short:         "Helicopter effectivity parsing and resolution service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe, // cmd_serve.go
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  runMigrate, // cmd_migrate.go
	}
	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the recorded schema version without migrating",
		RunE:  runMigrateStatus, // cmd_migrate.go
	}

	parseCmd = &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse an effectivity document and print the result without persisting it",
		Long: `Parses a manufacturer's list of effectivity codes and prints the codes, compiled
serial ranges and data-quality warnings. Reads standard input when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse, // cmd_parse.go
	}

	seedCmd = &cobra.Command{
		Use:   "seed [file]",
		Short: "Seed an effectivity document as the current revision",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed, // cmd_seed.go
	}

	curatedCmd = &cobra.Command{
		Use:   "curated",
		Short: "Manage curated configuration and part effectivity tables",
	}
	curatedImportCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import a curated YAML dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runCuratedImport, // cmd_curated.go
	}

	revisionsCmd = &cobra.Command{
		Use:   "revisions",
		Short: "Inspect and switch effectivity revisions",
	}
	revisionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List seeded revisions, newest first",
		RunE:  runRevisionsList, // cmd_revisions.go
	}
	revisionsActivateCmd = &cobra.Command{
		Use:   "activate [id]",
		Short: "Make a previously seeded revision current",
		Args:  cobra.ExactArgs(1),
		RunE:  runRevisionsActivate, // cmd_revisions.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file to load before reading the environment")

	parseCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")

	seedCmd.Flags().StringVarP(&revisionLabel, "revision", "r", "", "revision label of the document (required)")
	seedCmd.Flags().StringVar(&sourceDocument, "source-document", "", "name of the source document")
	seedCmd.Flags().IntVar(&expectedCodes, "expected-codes", 0, "override the expected distinct code count")
	seedCmd.Flags().IntVar(&expectedRanges, "expected-ranges", 0, "override the expected range count")
	_ = seedCmd.MarkFlagRequired("revision")

	revisionsListCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	migrateStatusCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")

	migrateCmd.AddCommand(migrateStatusCmd)
	curatedCmd.AddCommand(curatedImportCmd)
	revisionsCmd.AddCommand(revisionsListCmd, revisionsActivateCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, parseCmd, seedCmd, curatedCmd, revisionsCmd)
}
