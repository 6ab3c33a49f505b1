package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lawrns/foco/types"
)

// The commands are exercised in-process. One command tree serves the
// whole test binary, so every run resets flag and viper state back to
// what a fresh process would see.

// tempStore returns a store path inside a fresh temp dir and points the
// log directory away from the real cache.
func tempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return filepath.Join(dir, "foco.json")
}

// resetFlags returns every flag in the tree to its default value.
// Slice flags go through Replace because a plain Set appends once the
// flag has been used.
func resetFlags(cmd *cobra.Command) {
	visit := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(visit)
	cmd.PersistentFlags().VisitAll(visit)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes one command line and captures stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	vconf = viper.New()

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

// mustRun fails the test when the command errors and returns trimmed
// stdout.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("foco %s: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(out)
}

func decodeTasks(t *testing.T, out string) []types.Task {
	t.Helper()
	var tasks []types.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("json output did not decode: %v\n%s", err, out)
	}
	return tasks
}

func TestProjectCommands(t *testing.T) {
	store := tempStore(t)

	id := mustRun(t, "--store", store, "--quiet", "project", "add", "Website Revamp")
	if id == "" {
		t.Fatal("quiet add should print the project id")
	}
	out := mustRun(t, "--store", store, "project", "add", "Mobile App")
	if !strings.Contains(out, "Created project Mobile App") {
		t.Errorf("unexpected confirmation: %q", out)
	}

	out = mustRun(t, "--store", store, "project", "list")
	for _, want := range []string{"NAME", "Website Revamp", "Mobile App"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "--store", store, "--quiet", "project", "list")
	if strings.Contains(out, "NAME") {
		t.Errorf("quiet list should drop the header row:\n%s", out)
	}

	out = mustRun(t, "--store", store, "--format", "json", "project", "list")
	var projects []types.Project
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("json output did not decode: %v\n%s", err, out)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	found := false
	for _, p := range projects {
		if p.ID == id && p.Name == "Website Revamp" {
			found = true
		}
	}
	if !found {
		t.Errorf("json output missing project %s:\n%s", id, out)
	}

	out = mustRun(t, "--store", store, "--format", "yaml", "project", "list")
	var fromYAML []types.Project
	if err := yaml.Unmarshal([]byte(out), &fromYAML); err != nil {
		t.Fatalf("yaml output did not decode: %v\n%s", err, out)
	}
	if len(fromYAML) != 2 {
		t.Errorf("expected 2 projects in yaml output, got %d", len(fromYAML))
	}

	mustRun(t, "--store", store, "project", "archive", "Mobile App")
	out = mustRun(t, "--store", store, "project", "list")
	if strings.Contains(out, "Mobile App") {
		t.Errorf("archived project should be hidden by default:\n%s", out)
	}
	out = mustRun(t, "--store", store, "project", "list", "--archived")
	if !strings.Contains(out, "Mobile App") || !strings.Contains(out, "archived") {
		t.Errorf("archived listing missing project or state:\n%s", out)
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := tempStore(t)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")

	design := mustRun(t, "--store", store, "--quiet", "task", "add", "Design landing page",
		"--project", "Website", "--priority", "high", "--label", "design", "--estimate", "8")
	nav := mustRun(t, "--store", store, "--quiet", "task", "add", "Build navigation",
		"--project", "Website", "--due", "2030-01-02")

	out := mustRun(t, "--store", store, "--format", "json", "task", "list", "--project", "Website")
	tasks := decodeTasks(t, out)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != design || tasks[1].ID != nav {
		t.Errorf("expected column order [Design, Build], got [%s, %s]", tasks[0].Title, tasks[1].Title)
	}
	if tasks[0].Priority != types.PriorityHigh {
		t.Errorf("expected high priority, got %s", tasks[0].Priority)
	}
	if tasks[0].Estimate != 8 {
		t.Errorf("expected estimate 8, got %v", tasks[0].Estimate)
	}
	if len(tasks[0].Labels) != 1 || tasks[0].Labels[0] != "design" {
		t.Errorf("expected label [design], got %v", tasks[0].Labels)
	}
	if tasks[1].DueAt == nil {
		t.Error("expected the due date to be set")
	}

	out = mustRun(t, "--store", store, "task", "move", "Design landing page",
		"--project", "Website", "--status", "in_progress")
	if !strings.Contains(out, "to in_progress") {
		t.Errorf("unexpected move confirmation: %q", out)
	}
	out = mustRun(t, "--store", store, "--format", "json", "task", "list",
		"--project", "Website", "--status", "in_progress")
	tasks = decodeTasks(t, out)
	if len(tasks) != 1 || tasks[0].ID != design {
		t.Fatalf("expected the moved task alone in in_progress, got %d tasks", len(tasks))
	}

	mustRun(t, "--store", store, "task", "done", design)
	out = mustRun(t, "--store", store, "--format", "json", "task", "list",
		"--project", "Website", "--status", "done")
	tasks = decodeTasks(t, out)
	if len(tasks) != 1 || tasks[0].ID != design {
		t.Fatalf("expected the completed task in done, got %d tasks", len(tasks))
	}
	if tasks[0].DoneAt == nil {
		t.Error("expected a completion timestamp")
	}

	// Reordering against a sibling by id.
	copyID := mustRun(t, "--store", store, "--quiet", "task", "add", "Write copy",
		"--project", "Website")
	mustRun(t, "--store", store, "task", "move", copyID, "--before", nav)
	out = mustRun(t, "--store", store, "--format", "json", "task", "list",
		"--project", "Website", "--status", "todo")
	tasks = decodeTasks(t, out)
	if len(tasks) != 2 || tasks[0].ID != copyID || tasks[1].ID != nav {
		t.Errorf("expected [Write copy, Build navigation] after the move, got %d tasks", len(tasks))
	}
}

func TestTaskAssignAndFind(t *testing.T) {
	store := tempStore(t)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")
	mustRun(t, "--store", store, "--quiet", "member", "add", "Ana Cruz", "--email", "ana@example.com")
	taskID := mustRun(t, "--store", store, "--quiet", "task", "add", "Write launch copy",
		"--project", "Website")

	if _, err := runCLI(t, "--store", store, "task", "assign", taskID); err == nil ||
		!strings.Contains(err.Error(), "--clear") {
		t.Errorf("expected the member-or-clear error, got %v", err)
	}

	out := mustRun(t, "--store", store, "task", "assign", taskID, "ana@example.com")
	if !strings.Contains(out, "Assigned Write launch copy") {
		t.Errorf("unexpected assign confirmation: %q", out)
	}
	out = mustRun(t, "--store", store, "--format", "json", "task", "list", "--assignee", "Ana Cruz")
	tasks := decodeTasks(t, out)
	if len(tasks) != 1 || tasks[0].ID != taskID {
		t.Fatalf("expected the assigned task, got %d tasks", len(tasks))
	}

	mustRun(t, "--store", store, "task", "assign", taskID, "--clear")
	out = mustRun(t, "--store", store, "--format", "json", "task", "list", "--assignee", "unassigned")
	tasks = decodeTasks(t, out)
	if len(tasks) != 1 || tasks[0].ID != taskID {
		t.Fatalf("expected the task back among unassigned, got %d tasks", len(tasks))
	}

	out = mustRun(t, "--store", store, "task", "find", "launch")
	if !strings.Contains(out, "Write launch copy") {
		t.Errorf("search output missing the matching task:\n%s", out)
	}
	out = mustRun(t, "--store", store, "task", "find", "zebra")
	if strings.Contains(out, "Write launch copy") {
		t.Errorf("search for an absent term should not match:\n%s", out)
	}
}

func TestMemberCommands(t *testing.T) {
	store := tempStore(t)

	id := mustRun(t, "--store", store, "--quiet", "member", "add", "Ana Cruz",
		"--email", "ana@example.com", "--role", "admin")
	out := mustRun(t, "--store", store, "member", "list")
	for _, want := range []string{"Ana Cruz", "ana@example.com", "admin"} {
		if !strings.Contains(out, want) {
			t.Errorf("member list missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "--store", store, "member", "add", "Sam Park", "--role", "chief"); err == nil {
		t.Error("expected an error for an unknown role")
	}

	mustRun(t, "--store", store, "member", "remove", id)
	out = mustRun(t, "--store", store, "member", "list")
	if strings.Contains(out, "Ana Cruz") {
		t.Errorf("removed member still listed:\n%s", out)
	}
}

func TestMilestoneCommands(t *testing.T) {
	store := tempStore(t)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")

	id := mustRun(t, "--store", store, "--quiet", "milestone", "add", "Public Beta",
		"--project", "Website", "--due", "2030-05-15")
	if id == "" {
		t.Fatal("quiet add should print the milestone id")
	}

	out := mustRun(t, "--store", store, "milestone", "list", "--project", "Website")
	for _, want := range []string{"Public Beta", "Website", "2030-05-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("milestone list missing %q:\n%s", want, out)
		}
	}
}

func TestImportAndExport(t *testing.T) {
	store := tempStore(t)
	dir := filepath.Dir(store)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")

	csvPath := filepath.Join(dir, "backlog.csv")
	csvBody := "Title,Status,Priority\nPolish footer,todo,high\nFix login flow,in_progress,urgent\n"
	if err := os.WriteFile(csvPath, []byte(csvBody), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	out := mustRun(t, "--store", store, "import", "csv", csvPath, "--project", "Website")
	if !strings.Contains(out, "Imported 2 tasks (0 skipped, 0 errors)") {
		t.Errorf("unexpected import summary: %q", out)
	}

	out = mustRun(t, "--store", store, "import", "csv", csvPath, "--project", "Website", "--dry-run")
	if !strings.Contains(out, "Dry run, nothing was written.") {
		t.Errorf("dry run summary missing the notice: %q", out)
	}

	// Awkward headers bound through --map.
	remapPath := filepath.Join(dir, "remap.csv")
	remapBody := "Task Name,Deadline\nShip blog,2030-03-01\n"
	if err := os.WriteFile(remapPath, []byte(remapBody), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	mustRun(t, "--store", store, "import", "csv", remapPath, "--project", "Website",
		"--map", "title=Task Name", "--map", "due=Deadline")

	out = mustRun(t, "--store", store, "--format", "json", "task", "list", "--project", "Website")
	tasks := decodeTasks(t, out)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks after imports, got %d", len(tasks))
	}
	var shipped *types.Task
	for i := range tasks {
		if tasks[i].Title == "Ship blog" {
			shipped = &tasks[i]
		}
	}
	if shipped == nil {
		t.Fatal("remapped import did not create the task")
	}
	if shipped.DueAt == nil {
		t.Error("remapped due column was not applied")
	}

	zipPath := filepath.Join(dir, "backup.zip")
	out = mustRun(t, "--store", store, "export", "--project", "Website", "--out", zipPath)
	if !strings.Contains(out, "Wrote "+zipPath) || !strings.Contains(out, "(5 files)") {
		t.Errorf("unexpected export confirmation: %q", out)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open exported zip: %v", err)
	}
	defer zr.Close()
	names := make(map[string]bool, len(zr.File))
	taskDocs := 0
	for _, f := range zr.File {
		names[f.Name] = true
		if strings.HasPrefix(f.Name, "tasks/") {
			taskDocs++
		}
	}
	if !names["manifest.yaml"] || !names["board.json"] {
		t.Errorf("archive missing manifest or snapshot, has %v", names)
	}
	if taskDocs != 3 {
		t.Errorf("expected 3 task documents, got %d", taskDocs)
	}
}

func TestBoardRender(t *testing.T) {
	store := tempStore(t)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")
	mustRun(t, "--store", store, "--quiet", "task", "add", "Design landing page",
		"--project", "Website", "--priority", "high")
	mustRun(t, "--store", store, "--quiet", "task", "add", "Update pricing page",
		"--project", "Website", "--due", "2020-01-01")
	mustRun(t, "--store", store, "--quiet", "task", "add", "Fix login flow",
		"--project", "Website", "--status", "in_progress")

	out := mustRun(t, "--store", store, "--no-color", "board", "--project", "Website")
	for _, want := range []string{
		"Website",
		"Backlog (0)",
		"To Do (2)",
		"In Progress (1)",
		"Design landing page",
		"[high]",
		"overdue",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("board output missing %q:\n%s", want, out)
		}
	}

	// A board.yaml next to the store replaces the default layout.
	layout := "columns:\n  - status: todo\n    name: Queue\n    wip_limit: 1\n"
	if err := os.WriteFile(filepath.Join(filepath.Dir(store), "board.yaml"), []byte(layout), 0o644); err != nil {
		t.Fatalf("failed to write board.yaml: %v", err)
	}
	out = mustRun(t, "--store", store, "--no-color", "board", "--project", "Website")
	if !strings.Contains(out, "Queue (2/1)") || !strings.Contains(out, "over limit") {
		t.Errorf("expected the configured column over its limit:\n%s", out)
	}
	if strings.Contains(out, "Fix login flow") {
		t.Errorf("statuses without a column should not render:\n%s", out)
	}
}

func TestNameResolution(t *testing.T) {
	store := tempStore(t)
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website Alpha")
	mustRun(t, "--store", store, "--quiet", "project", "add", "Website Beta")

	_, err := runCLI(t, "--store", store, "task", "add", "Ship it", "--project", "website")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected an ambiguity error, got %v", err)
	}

	// A unique prefix resolves.
	mustRun(t, "--store", store, "--quiet", "task", "add", "Ship it", "--project", "website a")
	out := mustRun(t, "--store", store, "--format", "json", "task", "list", "--project", "Website Alpha")
	if len(decodeTasks(t, out)) != 1 {
		t.Errorf("prefix-resolved add did not land in Website Alpha:\n%s", out)
	}

	_, err = runCLI(t, "--store", store, "project", "archive", "ghost")
	if err == nil || !strings.Contains(err.Error(), `project "ghost" not found`) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestRootFlagValidation(t *testing.T) {
	store := tempStore(t)

	_, err := runCLI(t, "--store", store, "--format", "xml", "project", "list")
	if err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Errorf("expected a format error, got %v", err)
	}

	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")
	_, err = runCLI(t, "--store", store, "task", "add", "X", "--project", "Website", "--due", "someday")
	if err == nil || !strings.Contains(err.Error(), `invalid date "someday"`) {
		t.Errorf("expected a date error, got %v", err)
	}
}

func TestEnvironmentOverridesFormat(t *testing.T) {
	store := tempStore(t)
	t.Setenv("FOCO_FORMAT", "json")

	mustRun(t, "--store", store, "--quiet", "project", "add", "Website")
	out := mustRun(t, "--store", store, "project", "list")
	var projects []types.Project
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("FOCO_FORMAT=json should switch the output: %v\n%s", err, out)
	}
	if len(projects) != 1 || projects[0].Name != "Website" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestConfigFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	store := filepath.Join(dir, "board.json")

	cfgPath := filepath.Join(dir, "foco.yaml")
	cfg := "store: " + store + "\nformat: json\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("FOCO_CONFIG", cfgPath)

	mustRun(t, "--quiet", "project", "add", "Website")
	if _, err := os.Stat(store); err != nil {
		t.Fatalf("store was not created at the configured path: %v", err)
	}

	out := mustRun(t, "project", "list")
	var projects []types.Project
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		t.Fatalf("configured format should apply: %v\n%s", err, out)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	// An explicit flag still beats the config file.
	out = mustRun(t, "--format", "table", "project", "list")
	if !strings.Contains(out, "NAME") {
		t.Errorf("flag should override the configured format:\n%s", out)
	}
}
