package generator

import (
	"context"
	"path/filepath"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/exec"
)

// BackendInstall re-runs the backend's dependency install after feature
// generators have added entries to its manifest.
type BackendInstall struct {
	Runner  exec.CommandRunner
	Backend string
}

func (g *BackendInstall) Name() string { return "backend-install" }

func (g *BackendInstall) Requires() []string {
	if g.Backend == config.BackendDjango {
		return []string{filepath.Join("backend", "requirements.txt")}
	}
	return []string{filepath.Join("backend", "package.json")}
}

func (g *BackendInstall) Generate(ctx context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}
	backend := filepath.Join(projectDir, "backend")

	emitLog("Installing added backend dependencies")
	if g.Backend == config.BackendDjango {
		return step(ctx, g.Runner, cfg, emitLog, backend, cfg.Python, "-m", "pip", "install", "-r", "requirements.txt")
	}
	name, args := cfg.InstallCommand()
	return step(ctx, g.Runner, cfg, emitLog, backend, name, args...)
}
