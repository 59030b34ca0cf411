package generator

import (
	"context"
	"path/filepath"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/exec"
	"shireesh.com/stackgen/internal/fsutil"
)

// ExpressTS generates an Express + TypeScript backend under backend/.
type ExpressTS struct {
	Runner exec.CommandRunner
}

func (g *ExpressTS) Name() string       { return config.BackendExpressTS }
func (g *ExpressTS) Requires() []string { return nil }

func (g *ExpressTS) Generate(ctx context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}
	if err := config.Require("backend_port", cfg.BackendPort); err != nil {
		return err
	}

	backend := filepath.Join(projectDir, "backend")
	src := filepath.Join(backend, "src")

	emitLog("Creating Express + TypeScript backend in backend/")
	if err := fsutil.Mkdir(backend); err != nil {
		return err
	}

	emitLog("Writing package.json")
	if err := writeTemplate(filepath.Join(backend, "package.json"), "express/package.json", nil); err != nil {
		return err
	}

	emitLog("Writing tsconfig.json")
	if err := writeTemplate(filepath.Join(backend, "tsconfig.json"), "express/tsconfig.json", nil); err != nil {
		return err
	}

	emitLog("Creating src/")
	if err := fsutil.Mkdir(src); err != nil {
		return err
	}

	emitLog("Writing src/index.ts")
	if err := writeTemplate(filepath.Join(src, "index.ts"), "express/index.ts.tmpl", cfg); err != nil {
		return err
	}

	emitLog("Installing backend dependencies")
	name, args := cfg.InstallCommand()
	if err := step(ctx, g.Runner, cfg, emitLog, backend, name, args...); err != nil {
		return err
	}

	emitLog("Express backend ready")
	return nil
}
