package project

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
	"shireesh.com/stackgen/internal/generator"
)

// fakeRunner succeeds every command, failing the ones listed in fail, and
// creates frontend/ when asked to scaffold Vite.
type fakeRunner struct {
	commands []string
	fail     map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	command := name + " " + strings.Join(args, " ")
	f.commands = append(f.commands, command)
	if f.fail[command] {
		return exec.CmdResult{ExitCode: 1}, nil
	}
	if strings.Contains(command, "create vite") {
		if err := os.MkdirAll(filepath.Join(opts.Dir, "frontend", "node_modules", "vite"), 0o755); err != nil {
			return exec.CmdResult{}, err
		}
	}
	return exec.CmdResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ProjectName:    "shop",
		BackendPort:    4000,
		FrontendPort:   5173,
		Backend:        config.BackendExpressTS,
		Frontend:       config.FrontendReactTS,
		PackageManager: "npm",
		Python:         "python3",
		InstallTimeout: time.Minute,
	}
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestCreate(t *testing.T) {
	out := t.TempDir()
	runner := &fakeRunner{}
	var logs []string

	rec, err := Create(context.Background(), testConfig(), Options{
		OutDir: out,
		Runner: runner,
		Log:    func(msg string) { logs = append(logs, msg) },
		Now:    fixedNow,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := filepath.Join(out, "shop")
	for _, p := range []string{"backend/src/index.ts", "frontend/vite.config.ts", RecordFile} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}

	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("record id %q: %v", rec.ID, err)
	}
	if diff := cmp.Diff([]string{"express-ts", "react-ts"}, rec.Plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	loaded, err := LoadRecord(dir)
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if diff := cmp.Diff(rec, loaded); diff != "" {
		t.Errorf("record round trip (-saved +loaded):\n%s", diff)
	}
	if !loaded.CreatedAt.Equal(fixedNow()) {
		t.Errorf("created_at = %v", loaded.CreatedAt)
	}
	for _, g := range loaded.Generators {
		if g.Status != generator.StatusDone {
			t.Errorf("%s status = %s", g.Name, g.Status)
		}
	}

	if !strings.HasPrefix(logs[0], "Creating shop in ") {
		t.Errorf("logs[0] = %q", logs[0])
	}
	if !containsLine(logs, "[express-ts] Express backend ready") || !containsLine(logs, "[react-ts] React frontend ready") {
		t.Errorf("logs = %v", logs)
	}
}

func TestCreate_FailureStillRecords(t *testing.T) {
	out := t.TempDir()
	runner := &fakeRunner{fail: map[string]bool{"npm install": true}}

	rec, err := Create(context.Background(), testConfig(), Options{OutDir: out, Runner: runner, Now: fixedNow})
	if generr.GetCode(err) != generr.EProcessFailed {
		t.Fatalf("Create = %v, want E_PROCESS_FAILED", err)
	}

	loaded, lerr := LoadRecord(filepath.Join(out, "shop"))
	if lerr != nil {
		t.Fatalf("LoadRecord: %v", lerr)
	}
	if loaded.Error == "" || loaded.Error != rec.Error {
		t.Errorf("record error = %q", loaded.Error)
	}
	want := []generator.Status{generator.StatusFailed, generator.StatusSkipped}
	var got []generator.Status
	for _, g := range loaded.Generators {
		got = append(got, g.Status)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	results := loaded.Results()
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "E_PROCESS_FAILED") {
		t.Errorf("results[0].Err = %v", results[0].Err)
	}
}

func TestCreate_Archive(t *testing.T) {
	out := t.TempDir()
	archive := filepath.Join(t.TempDir(), "shop.zip")

	rec, err := Create(context.Background(), testConfig(), Options{OutDir: out, Archive: archive, Runner: &fakeRunner{}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Archive != archive {
		t.Errorf("record archive = %q", rec.Archive)
	}

	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	if !names["backend/src/index.ts"] || !names[RecordFile] {
		t.Errorf("archive entries = %v", names)
	}
	for name := range names {
		if strings.Contains(name, "node_modules/vite") {
			t.Errorf("archive contains dependency folder entry %s", name)
		}
	}
}

func TestCreate_ArchiveInsideProject(t *testing.T) {
	out := t.TempDir()
	_, err := Create(context.Background(), testConfig(), Options{
		OutDir:  out,
		Archive: filepath.Join(out, "shop", "shop.zip"),
		Runner:  &fakeRunner{},
	})
	if generr.GetCode(err) != generr.EInvalidConfig {
		t.Fatalf("Create = %v, want E_INVALID_CONFIG", err)
	}
}

func TestCreate_NonEmptyDir(t *testing.T) {
	out := t.TempDir()
	if err := os.MkdirAll(filepath.Join(out, "shop"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "shop", "README.md"), []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}

	_, err := Create(context.Background(), testConfig(), Options{OutDir: out, Runner: runner})
	if generr.GetCode(err) != generr.EPathConflict {
		t.Fatalf("Create = %v, want E_PATH_CONFLICT", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("commands ran: %v", runner.commands)
	}
}

func TestCreate_EmptyDirReused(t *testing.T) {
	out := t.TempDir()
	if err := os.MkdirAll(filepath.Join(out, "shop"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(context.Background(), testConfig(), Options{OutDir: out, Runner: &fakeRunner{}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestCreate_InvalidConfig(t *testing.T) {
	out := t.TempDir()
	cfg := testConfig()
	cfg.FrontendPort = cfg.BackendPort

	_, err := Create(context.Background(), cfg, Options{OutDir: out, Runner: &fakeRunner{}})
	if generr.GetCode(err) != generr.EInvalidConfig {
		t.Fatalf("Create = %v, want E_INVALID_CONFIG", err)
	}
	if _, err := os.Stat(filepath.Join(out, "shop")); !os.IsNotExist(err) {
		t.Error("project directory created for an invalid config")
	}
}

func TestLoadRecord_Missing(t *testing.T) {
	if _, err := LoadRecord(t.TempDir()); generr.GetCode(err) != generr.EIO {
		t.Fatalf("LoadRecord = %v, want E_IO", err)
	}
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
