package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/board"
)

var copyCmd = &cobra.Command{
	Use:   "copy <destination>",
	Short: "Copy the board into another store file",
	Long: `Copy every record into the store at destination, replacing whatever
it holds. The destination extension picks its backend, so copying
board.json to board.db converts a board to SQLite and back.`,
	Args: cobra.ExactArgs(1),
	RunE: runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	srcAbs, err := filepath.Abs(storePath)
	if err != nil {
		return fmt.Errorf("invalid store path: %w", err)
	}
	dstAbs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}
	if srcAbs == dstAbs {
		return fmt.Errorf("destination matches the source store")
	}

	src, srcSnap, err := openBoard(storePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = src.Close() }()

	data, err := srcSnap.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read board: %w", err)
	}
	if issues := board.CheckData(data); len(issues) > 0 {
		for _, issue := range issues {
			printIssue(issue)
		}
		return fmt.Errorf("source has %d issues, repair it first", len(issues))
	}

	if dryRun {
		fmt.Printf("Would copy %s to %s\n", countLine(data), args[0])
		return nil
	}

	dst, dstSnap, err := openBoard(args[0])
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if err := dstSnap.Restore(data); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}
	fmt.Printf("Copied %s to %s\n", countLine(data), args[0])
	return nil
}
