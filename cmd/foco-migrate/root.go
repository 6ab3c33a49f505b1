package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
)

var (
	storePath string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "foco-migrate",
	Short: "Board store maintenance",
	Long: `foco-migrate works on the store file itself: copy a board between
the JSON and SQLite backends, validate its records and order keys, and
repair what validation reports. The main foco command never needs it;
reach for it when switching backends or when a store file was edited
or damaged outside of foco.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "path to the board store file (required)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "preview changes without applying them")
	_ = rootCmd.MarkPersistentFlagRequired("store")

	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(repairCmd)
}

// openBoard opens the store at path; the extension picks the backend.
func openBoard(path string) (types.Store, board.Snapshotter, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid store path: %w", err)
	}
	s, err := board.New(absPath)
	if err != nil {
		return nil, nil, err
	}
	snap, ok := s.(board.Snapshotter)
	if !ok {
		_ = s.Close()
		return nil, nil, fmt.Errorf("store %s does not support snapshots", absPath)
	}
	return s, snap, nil
}

func printIssue(issue board.Issue) {
	color.New(color.FgRed).Fprintf(color.Error, "ERROR: %s\n", issue)
}

// countLine summarizes a board envelope in one line.
func countLine(data *storage.BoardData) string {
	return fmt.Sprintf("%d projects, %d tasks, %d milestones, %d members",
		len(data.Projects), len(data.Tasks), len(data.Milestones), len(data.Members))
}
