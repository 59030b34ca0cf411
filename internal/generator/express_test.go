package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/manifest"
)

func TestExpressTS_Generate(t *testing.T) {
	dir := t.TempDir()
	runner := &stubRunner{}
	logs := &logRecorder{}

	g := &ExpressTS{Runner: runner}
	if err := g.Generate(context.Background(), testConfig(), dir, logs.sink); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{
		"backend",
		"backend/package.json",
		"backend/src",
		"backend/src/index.ts",
		"backend/tsconfig.json",
	}
	if diff := cmp.Diff(want, tree(t, dir)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	index := readFile(t, filepath.Join(dir, "backend", "src", "index.ts"))
	for _, s := range []string{
		"const port = process.env.PORT || 4000;",
		"app.get('/api/test'",
		"app.get('/api/health'",
		"app.use(cors());",
		"app.use(express.json());",
		"app.listen(port",
	} {
		if !strings.Contains(index, s) {
			t.Errorf("index.ts missing %q", s)
		}
	}

	if diff := cmp.Diff([]string{"npm install"}, runner.commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if runner.calls[0].Dir != filepath.Join(dir, "backend") {
		t.Errorf("install ran in %s", runner.calls[0].Dir)
	}

	wantLogs := []string{
		"Creating Express + TypeScript backend in backend/",
		"Writing package.json",
		"Writing tsconfig.json",
		"Creating src/",
		"Writing src/index.ts",
		"Installing backend dependencies",
		"Express backend ready",
	}
	if diff := cmp.Diff(wantLogs, logs.lines); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestExpressTS_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := (&ExpressTS{Runner: &stubRunner{}}).Generate(context.Background(), testConfig(), dir, func(string) {}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	m, err := manifest.Parse([]byte(readFile(t, filepath.Join(dir, "backend", "package.json"))))
	if err != nil {
		t.Fatalf("package.json: %v", err)
	}
	deps := map[string]string{
		"express": "^4.18.2",
		"cors":    "^2.8.5",
		"dotenv":  "^16.3.1",
	}
	for name, version := range deps {
		if got, _ := m.Dependency(manifest.Dependencies, name); got != version {
			t.Errorf("dependency %s = %q, want %q", name, got, version)
		}
	}
	if got, _ := m.Dependency(manifest.DevDependencies, "typescript"); got != "^5.1.6" {
		t.Errorf("typescript = %q", got)
	}

	var tsconfig struct {
		CompilerOptions map[string]any `json:"compilerOptions"`
		Include         []string       `json:"include"`
		Exclude         []string       `json:"exclude"`
	}
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "backend", "tsconfig.json"))), &tsconfig); err != nil {
		t.Fatalf("tsconfig.json: %v", err)
	}
	if tsconfig.CompilerOptions["outDir"] != "./dist" || tsconfig.CompilerOptions["strict"] != true {
		t.Errorf("compilerOptions = %v", tsconfig.CompilerOptions)
	}
	if diff := cmp.Diff([]string{"src/**/*"}, tsconfig.Include); diff != "" {
		t.Errorf("include mismatch (-want +got):\n%s", diff)
	}
}

func TestExpressTS_PortIsLiteral(t *testing.T) {
	for _, port := range []int{1, 80, 3000, 4000, 65535} {
		t.Run(fmt.Sprint(port), func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig()
			cfg.BackendPort = port
			if err := (&ExpressTS{Runner: &stubRunner{}}).Generate(context.Background(), cfg, dir, func(string) {}); err != nil {
				t.Fatalf("Generate: %v", err)
			}
			index := readFile(t, filepath.Join(dir, "backend", "src", "index.ts"))
			if want := fmt.Sprintf("process.env.PORT || %d", port); !strings.Contains(index, want) {
				t.Errorf("index.ts missing %q", want)
			}
		})
	}
}

func TestExpressTS_InstallFails(t *testing.T) {
	dir := t.TempDir()
	runner := &stubRunner{exit: map[string]int{"npm install": 1}}
	logs := &logRecorder{}

	err := (&ExpressTS{Runner: runner}).Generate(context.Background(), testConfig(), dir, logs.sink)
	if generr.GetCode(err) != generr.EProcessFailed {
		t.Fatalf("Generate = %v, want E_PROCESS_FAILED", err)
	}
	if logs.contains("Express backend ready") {
		t.Error("steps after the failed install ran")
	}
	// no rollback: files written before the failure stay
	if _, err := os.Stat(filepath.Join(dir, "backend", "src", "index.ts")); err != nil {
		t.Errorf("index.ts should remain after failure: %v", err)
	}
}

func TestExpressTS_InstallFailureLogsCapturedOutput(t *testing.T) {
	cfg := testConfig()
	cfg.CaptureOutput = true
	runner := &stubRunner{exit: map[string]int{"npm install": 1}}
	logs := &logRecorder{}

	err := (&ExpressTS{Runner: runner}).Generate(context.Background(), cfg, t.TempDir(), logs.sink)
	if err == nil {
		t.Fatal("expected error")
	}
	if !logs.contains("npm ERR! code E404") {
		t.Errorf("captured stderr not logged: %v", logs.lines)
	}
}

func TestExpressTS_InstallTimesOut(t *testing.T) {
	runner := &stubRunner{timedOut: map[string]bool{"npm install": true}}
	err := (&ExpressTS{Runner: runner}).Generate(context.Background(), testConfig(), t.TempDir(), func(string) {})
	if generr.GetCode(err) != generr.EProcessTimeout {
		t.Fatalf("Generate = %v, want E_PROCESS_TIMEOUT", err)
	}
}

func TestExpressTS_BackendExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "backend"), 0o755); err != nil {
		t.Fatal(err)
	}
	runner := &stubRunner{}

	err := (&ExpressTS{Runner: runner}).Generate(context.Background(), testConfig(), dir, func(string) {})
	if generr.GetCode(err) != generr.EPathConflict {
		t.Fatalf("Generate = %v, want E_PATH_CONFLICT", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("commands ran after conflict: %v", runner.commands())
	}
}

func TestExpressTS_MissingPort(t *testing.T) {
	cfg := testConfig()
	cfg.BackendPort = 0
	dir := t.TempDir()

	err := (&ExpressTS{Runner: &stubRunner{}}).Generate(context.Background(), cfg, dir, func(string) {})
	if generr.GetCode(err) != generr.EMissingOption {
		t.Fatalf("Generate = %v, want E_MISSING_OPTION", err)
	}
	if len(tree(t, dir)) != 0 {
		t.Error("nothing should be written when an option is missing")
	}
}

func TestExpressTS_PackageManager(t *testing.T) {
	cfg := testConfig()
	cfg.PackageManager = "pnpm"
	runner := &stubRunner{}
	if err := (&ExpressTS{Runner: runner}).Generate(context.Background(), cfg, t.TempDir(), func(string) {}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"pnpm install"}, runner.commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}
