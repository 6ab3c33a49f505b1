package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/export"
	imports "github.com/lawrns/foco/import"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tasks from external data",
}

var (
	importCSVProject string
	importCSVDryRun  bool
	importCSVMaps    []string

	exportProjects  []string
	exportDocFormat string
	exportOut       string
)

var importCSVCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Import tasks from a CSV file",
	Long: `Import tasks from a CSV file. The header row binds columns to
task fields by common names ("Title", "Due Date", "Tags", ...); --map
overrides the detection for awkward headers. Rows that fail validation
are reported with their line numbers and skipped, the rest import in
one batch.

Examples:
  foco import csv backlog.csv --project website
  foco import csv export.csv --project website --map title="Task Name" --map due="Deadline"
  foco import csv backlog.csv --project website --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		opts := imports.Options{DryRun: importCSVDryRun}
		if importCSVProject != "" {
			project, err := resolveProject(s, importCSVProject)
			if err != nil {
				return err
			}
			opts.ProjectID = project.ID
		}
		if opts.Mapping, err = parseMappingFlags(importCSVMaps); err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer file.Close()

		result, err := imports.CSV(s, file, opts)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		for _, rowErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "line %d: %s\n", rowErr.Line, rowErr.Reason)
		}
		if quiet {
			fmt.Printf("%d\n", result.Created)
			return nil
		}
		fmt.Printf("Imported %d tasks (%d skipped, %d errors)\n",
			result.Created, result.Skipped, result.Errored)
		if result.DryRun {
			fmt.Println("Dry run, nothing was written.")
		}
		return nil
	},
}

// parseMappingFlags turns repeated field=header pairs into a column
// mapping. Field names match the task fields the importer understands.
func parseMappingFlags(pairs []string) (imports.ColumnMapping, error) {
	var m imports.ColumnMapping
	for _, pair := range pairs {
		field, header, ok := strings.Cut(pair, "=")
		if !ok || header == "" {
			return m, fmt.Errorf("invalid --map %q (expected field=header)", pair)
		}
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "title":
			m.Title = header
		case "status":
			m.Status = header
		case "priority":
			m.Priority = header
		case "due":
			m.DueAt = header
		case "assignee":
			m.Assignee = header
		case "labels":
			m.Labels = header
		case "estimate":
			m.Estimate = header
		case "project":
			m.Project = header
		default:
			return m, fmt.Errorf("unknown mapping field %q (title, status, priority, due, assignee, labels, estimate, project)", field)
		}
	}
	return m, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the board as a zip archive",
	Long: `Export the board as a zip archive holding a manifest, a full
JSON snapshot, and one document per task. --project limits the export
to the given projects; members are always included so references
resolve.

Examples:
  foco export
  foco export --project website --out website-backup.zip
  foco export --doc-format markdown`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		opts := export.Options{Format: exportDocFormat}
		for _, token := range exportProjects {
			project, err := resolveProject(s, token)
			if err != nil {
				return err
			}
			opts.ProjectIDs = append(opts.ProjectIDs, project.ID)
		}

		archive, err := export.Build(s, opts, timeNow())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := exportOut
		if out == "" {
			out = archive.Name
		}
		if err := export.WriteFile(archive, out); err != nil {
			return err
		}
		confirm(out, "Wrote %s (%d files)", out, len(archive.Files))
		return nil
	},
}

func init() {
	importCSVCmd.Flags().StringVarP(&importCSVProject, "project", "p", "", "Default project for rows without one (id or name)")
	importCSVCmd.Flags().BoolVar(&importCSVDryRun, "dry-run", false, "Validate and report without writing")
	importCSVCmd.Flags().StringSliceVar(&importCSVMaps, "map", nil, "Column mapping field=header, repeatable")
	importCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringSliceVarP(&exportProjects, "project", "p", nil, "Project to include (id or name), repeatable")
	exportCmd.Flags().StringVar(&exportDocFormat, "doc-format", "", "Per-task document format (defaults to markdown)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (defaults to the archive's timestamped name)")
	rootCmd.AddCommand(exportCmd)
}
