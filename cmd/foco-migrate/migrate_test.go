package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
)

// Commands run in-process. One command tree serves the whole test
// binary, so flag state is reset before each run.

func resetFlags() {
	visit := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(visit)
	for _, sub := range rootCmd.Commands() {
		sub.Flags().VisitAll(visit)
	}
}

// runTool executes one command line and captures stdout.
func runTool(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	captured := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		captured <- buf.String()
	}()

	if args == nil {
		// nil makes cobra fall back to os.Args.
		args = []string{}
	}
	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	os.Stdout = orig
	_ = w.Close()
	out := <-captured
	_ = r.Close()
	return out, execErr
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runTool(t, args...)
	if err != nil {
		t.Fatalf("foco-migrate %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// writeCorruptBoard writes a board file with a dangling project
// reference, a duplicated order key, and a bad role token, none of
// which the store API can produce.
func writeCorruptBoard(t *testing.T, path string) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	data := storage.NewBoardData(now)
	data.Members = append(data.Members, types.Member{
		ID: "m1", Name: "Ana", Role: "chief", CreatedAt: now, UpdatedAt: now,
	})
	data.Projects = append(data.Projects, types.Project{
		ID: "p1", Name: "Website", CreatedAt: now, UpdatedAt: now,
	})
	data.Tasks = append(data.Tasks,
		types.Task{
			ID: "t1", ProjectID: "p1", Title: "One", Status: types.StatusTodo,
			Priority: types.PriorityNone, OrderKey: "a0", CreatedAt: now, UpdatedAt: now,
		},
		types.Task{
			ID: "t2", ProjectID: "p1", Title: "Two", Status: types.StatusTodo,
			Priority: types.PriorityNone, OrderKey: "a0", CreatedAt: now, UpdatedAt: now,
		},
		types.Task{
			ID: "t3", ProjectID: "ghost", Title: "Orphan", Status: types.StatusTodo,
			Priority: types.PriorityNone, OrderKey: "a0", CreatedAt: now, UpdatedAt: now,
		},
	)

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal board: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write board: %v", err)
	}
}

func TestValidateAndRepair(t *testing.T) {
	storeFile := filepath.Join(t.TempDir(), "board.json")
	writeCorruptBoard(t, storeFile)

	_, err := runTool(t, "validate", "--store", storeFile)
	if err == nil || !strings.Contains(err.Error(), "3 issues found") {
		t.Fatalf("expected 3 issues, got %v", err)
	}

	out := mustRun(t, "repair", "--store", storeFile, "--dry-run")
	for _, want := range []string{
		"dropped, unknown project ghost",
		`reset invalid role "chief"`,
		"renumbered 2 tasks in column p1/todo",
		"dry run, nothing was written",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
	if _, err := runTool(t, "validate", "--store", storeFile); err == nil {
		t.Fatal("dry run should not have changed the store")
	}

	out = mustRun(t, "repair", "--store", storeFile)
	if !strings.Contains(out, "Applied 3 fixes") {
		t.Errorf("expected applied summary, got:\n%s", out)
	}

	out = mustRun(t, "validate", "--store", storeFile)
	if !strings.Contains(out, "Board is consistent: 1 projects, 2 tasks, 0 milestones, 1 members") {
		t.Errorf("expected clean summary, got:\n%s", out)
	}

	out = mustRun(t, "repair", "--store", storeFile)
	if !strings.Contains(out, "Nothing to repair") {
		t.Errorf("expected nothing to repair, got:\n%s", out)
	}
}

func TestCopyBetweenBackends(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "board.json")
	dstPath := filepath.Join(dir, "board.db")

	src, err := board.New(srcPath)
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	projectID, err := src.AddProject(types.ProjectDraft{Name: "Website"})
	if err != nil {
		t.Fatalf("failed to add project: %v", err)
	}
	for _, title := range []string{"Design", "Build"} {
		if _, err := src.AddTask(types.TaskDraft{ProjectID: projectID, Title: title}); err != nil {
			t.Fatalf("failed to add task %s: %v", title, err)
		}
	}
	if err := src.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	t.Run("dry run reports without writing", func(t *testing.T) {
		out := mustRun(t, "copy", dstPath, "--store", srcPath, "--dry-run")
		if !strings.Contains(out, "Would copy 1 projects, 2 tasks, 0 milestones, 0 members") {
			t.Errorf("unexpected dry run output:\n%s", out)
		}
		if _, err := os.Stat(dstPath); !os.IsNotExist(err) {
			t.Errorf("dry run touched the destination: %v", err)
		}
	})

	t.Run("refuses to copy onto itself", func(t *testing.T) {
		_, err := runTool(t, "copy", srcPath, "--store", srcPath)
		if err == nil || !strings.Contains(err.Error(), "matches the source") {
			t.Errorf("expected same-path error, got %v", err)
		}
	})

	out := mustRun(t, "copy", dstPath, "--store", srcPath)
	if !strings.Contains(out, "Copied 1 projects, 2 tasks, 0 milestones, 0 members") {
		t.Errorf("unexpected copy output:\n%s", out)
	}

	dst, err := board.New(dstPath)
	if err != nil {
		t.Fatalf("failed to open destination: %v", err)
	}
	defer func() { _ = dst.Close() }()

	tasks, err := dst.ListTasks(types.ListOptions{})
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks in destination, got %d", len(tasks))
	}
	if tasks[0].Title != "Design" || tasks[1].Title != "Build" {
		t.Errorf("expected board order Design, Build, got %q, %q", tasks[0].Title, tasks[1].Title)
	}
}

func TestCopyRefusesCorruptSource(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "board.json")
	dstPath := filepath.Join(dir, "board.db")
	writeCorruptBoard(t, srcPath)

	_, err := runTool(t, "copy", dstPath, "--store", srcPath)
	if err == nil || !strings.Contains(err.Error(), "repair it first") {
		t.Fatalf("expected corrupt-source error, got %v", err)
	}
	if _, err := os.Stat(dstPath); !os.IsNotExist(err) {
		t.Error("failed copy still created the destination")
	}
}

func TestStoreFlagRequired(t *testing.T) {
	if _, err := runTool(t, "validate"); err == nil || !strings.Contains(err.Error(), "store") {
		t.Errorf("expected missing flag error, got %v", err)
	}
}
