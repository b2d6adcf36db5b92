package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/internal/services/seeding"
)

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	preview, err := seeding.NewPreview(text)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, preview)
}

// readInput reads the named file, or r when no file (or "-") is given.
func readInput(r io.Reader, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
