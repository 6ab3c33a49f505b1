package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/board"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Fix the problems validate reports",
	Long: `Rewrite the board until validate passes: records pointing at a
missing project are dropped, dangling references cleared, unknown
status, priority, and role tokens reset to defaults, and columns
holding duplicate or malformed order keys renumbered. Run with
--dry-run first to see the changes without writing them.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func runRepair(cmd *cobra.Command, args []string) error {
	s, snap, err := openBoard(storePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = s.Close() }()

	data, err := snap.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read board: %w", err)
	}

	fixes := board.RepairData(data, time.Now().UTC())
	if len(fixes) == 0 {
		fmt.Println("Nothing to repair")
		return nil
	}
	for _, fix := range fixes {
		fmt.Println(fix)
	}
	if dryRun {
		fmt.Printf("Would apply %d fixes (dry run, nothing was written)\n", len(fixes))
		return nil
	}

	if err := snap.Restore(data); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	fmt.Printf("Applied %d fixes\n", len(fixes))
	return nil
}
