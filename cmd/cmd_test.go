package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/report"
	"github.com/papapumpkin/critpath/internal/store"
)

// merge: a (3d) and b (2d) both feed c (1d). a is critical; b has one day
// of float.
const mergeProject = `
name = "Merge"

[calendar]
exclude_weekends = true

[[tasks]]
id = "a"
start = "2024-06-03"
duration = 3

[[tasks]]
id = "b"
start = "2024-06-03"
duration = 2

[[tasks]]
id = "c"
start = "2024-06-03"
duration = 1

[[dependencies]]
from = "a"
to = "c"

[[dependencies]]
from = "b"
to = "c"
`

const cyclicProject = `
name = "Loop"

[[tasks]]
id = "a"
start = "2024-06-03"
duration = 1

[[tasks]]
id = "b"
start = "2024-06-03"
duration = 1

[[dependencies]]
from = "a"
to = "b"

[[dependencies]]
from = "b"
to = "a"
`

func writeProject(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// resetFlags restores every flag below c to its default so flag values
// from one execution do not leak into the next.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args in an isolated store and returns
// what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points the store and telemetry at a temp dir.
func isolate(t *testing.T) (dbPath, eventsPath string) {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	dbPath = filepath.Join(dir, "critpath.db")
	eventsPath = filepath.Join(dir, "events.jsonl")
	viper.Set("store.dsn", dbPath)
	viper.Set("telemetry.path", eventsPath)
	t.Cleanup(viper.Reset)
	return dbPath, eventsPath
}

func TestCommands_Registered(t *testing.T) {
	t.Parallel()

	want := []string{"schedule", "impact", "validate", "import", "projects", "telemetry", "view"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			found := false
			for _, c := range rootCmd.Commands() {
				if c.Name() == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected %q subcommand to be registered on rootCmd", name)
			}
		})
	}
}

func TestCommands_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  *cobra.Command
		flag string
	}{
		{scheduleCmd, "format"},
		{scheduleCmd, "watch"},
		{scheduleCmd, "project"},
		{impactCmd, "task"},
		{impactCmd, "days"},
		{impactCmd, "json"},
		{importCmd, "id"},
		{projectsExportCmd, "output"},
		{projectsExportCmd, "force"},
		{telemetryCmd, "follow"},
		{telemetryCmd, "path"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name()+"/"+tt.flag, func(t *testing.T) {
			t.Parallel()
			if tt.cmd.Flags().Lookup(tt.flag) == nil {
				t.Errorf("expected flag %q on %s", tt.flag, tt.cmd.Name())
			}
		})
	}
}

func TestCheckSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		project string
		wantErr bool
	}{
		{"file", []string{"p.toml"}, "", false},
		{"stored", nil, "tower", false},
		{"neither", nil, "", true},
		{"both", []string{"p.toml"}, "tower", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkSource(tt.args, tt.project)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkSource(%v, %q) error = %v, wantErr %v", tt.args, tt.project, err, tt.wantErr)
			}
		})
	}
}

func TestProjectID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"tower.toml", "tower"},
		{"/plans/Riverside Tower.toml", "riverside-tower"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := projectID(tt.path); got != tt.want {
			t.Errorf("projectID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPrintEvent(t *testing.T) {
	t.Parallel()

	line := `{"ts":"2024-06-03T09:30:00Z","kind":"impact_query","project":"tower","task":"a","data":{"days":2,"affected":1}}`

	var buf bytes.Buffer
	printEvent(&buf, line, "")
	got := buf.String()
	for _, want := range []string{"[2024-06-03 09:30:00]", "impact_query", "project=tower", "task=a", "affected=1 days=2"} {
		if !strings.Contains(got, want) {
			t.Errorf("printEvent output %q missing %q", got, want)
		}
	}

	buf.Reset()
	printEvent(&buf, line, "other")
	if buf.Len() != 0 {
		t.Errorf("expected filtered event to be skipped, got %q", buf.String())
	}

	buf.Reset()
	printEvent(&buf, "not json", "")
	if got := buf.String(); got != "??? not json\n" {
		t.Errorf("printEvent(garbage) = %q", got)
	}
}

func TestSchedule_JSON(t *testing.T) {
	isolate(t)
	path := writeProject(t, "merge.toml", mergeProject)

	out, err := execute(t, "schedule", path, "--format", "json")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not a schedule document: %v\n%s", err, out)
	}
	if got := doc.ProjectFinish.String(); got != "2024-06-06" {
		t.Errorf("project finish = %s, want 2024-06-06", got)
	}
	critical := map[string]bool{}
	for _, task := range doc.Tasks {
		critical[task.ID] = task.Critical
	}
	if !critical["a"] || critical["b"] || !critical["c"] {
		t.Errorf("critical flags = %v, want a and c only", critical)
	}
}

func TestSchedule_UnknownFormat(t *testing.T) {
	isolate(t)
	path := writeProject(t, "merge.toml", mergeProject)

	if _, err := execute(t, "schedule", path, "--format", "pdf"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSchedule_RequiresSource(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "schedule"); err == nil {
		t.Fatal("expected error without a file or --project")
	}
}

func TestImpact_JSON(t *testing.T) {
	isolate(t)
	path := writeProject(t, "merge.toml", mergeProject)

	tests := []struct {
		name         string
		task         string
		days         string
		wantAffected []string
		wantDelay    int
		wantFinish   string
	}{
		{"absorbed by float", "b", "1", []string{}, 0, "2024-06-06"},
		{"critical slip", "a", "2", []string{"c"}, 2, "2024-06-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "impact", path, "--task", tt.task, "--days", tt.days, "--json")
			if err != nil {
				t.Fatalf("impact: %v", err)
			}
			var doc impactDocument
			if err := json.Unmarshal([]byte(out), &doc); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			if strings.Join(doc.Affected, ",") != strings.Join(tt.wantAffected, ",") {
				t.Errorf("affected = %v, want %v", doc.Affected, tt.wantAffected)
			}
			if doc.ProjectDelayDays != tt.wantDelay {
				t.Errorf("project delay = %d, want %d", doc.ProjectDelayDays, tt.wantDelay)
			}
			if doc.ProjectedFinish != tt.wantFinish {
				t.Errorf("projected finish = %s, want %s", doc.ProjectedFinish, tt.wantFinish)
			}
			if doc.ThreatensFinish != (tt.wantDelay > 0) {
				t.Errorf("threatens finish = %v", doc.ThreatensFinish)
			}
		})
	}
}

func TestImpact_UnknownTask(t *testing.T) {
	isolate(t)
	path := writeProject(t, "merge.toml", mergeProject)

	_, err := execute(t, "impact", path, "--task", "zzz", "--days", "1")
	if !errors.Is(err, dag.ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "validate", writeProject(t, "merge.toml", mergeProject)); err != nil {
		t.Errorf("valid project: %v", err)
	}
	_, err := execute(t, "validate", writeProject(t, "loop.toml", cyclicProject))
	if !errors.Is(err, errValidation) {
		t.Errorf("cyclic project: expected errValidation, got %v", err)
	}
}

func TestImportScheduleExport(t *testing.T) {
	_, events := isolate(t)
	path := writeProject(t, "merge.toml", mergeProject)

	if _, err := execute(t, "import", path, "--id", "merge"); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, err := execute(t, "schedule", "--project", "merge", "--format", "json")
	if err != nil {
		t.Fatalf("schedule --project: %v", err)
	}
	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := doc.ProjectFinish.String(); got != "2024-06-06" {
		t.Errorf("stored project finish = %s, want 2024-06-06", got)
	}

	exported := filepath.Join(t.TempDir(), "exported.toml")
	if _, err := execute(t, "projects", "export", "merge", "-o", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	out, err = execute(t, "schedule", exported, "--format", "json")
	if err != nil {
		t.Fatalf("schedule exported file: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := doc.ProjectFinish.String(); got != "2024-06-06" {
		t.Errorf("exported project finish = %s, want 2024-06-06", got)
	}

	if _, err := execute(t, "projects", "export", "merge", "-o", exported); err == nil {
		t.Error("expected export to refuse an existing file without --force")
	}

	if _, err := execute(t, "projects", "delete", "merge"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "projects", "delete", "merge"); !errors.Is(err, store.ErrProjectNotFound) {
		t.Errorf("second delete: expected ErrProjectNotFound, got %v", err)
	}

	out, err = execute(t, "telemetry", "--path", events)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	for _, kind := range []string{"project_imported", "schedule_run", "project_deleted"} {
		if !strings.Contains(out, kind) {
			t.Errorf("telemetry output missing %s:\n%s", kind, out)
		}
	}
}
