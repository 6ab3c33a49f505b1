package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/board"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the board for consistency problems",
	Long: `Check every record: referential integrity, status, priority, and
role tokens, and order keys that are valid and unique within their
column. Problems print one per line; a clean board exits zero.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, snap, err := openBoard(storePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = s.Close() }()

	data, err := snap.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read board: %w", err)
	}

	issues := board.CheckData(data)
	for _, issue := range issues {
		printIssue(issue)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d issues found", len(issues))
	}

	fmt.Printf("Board is consistent: %s\n", countLine(data))
	return nil
}
