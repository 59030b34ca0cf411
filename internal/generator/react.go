package generator

import (
	"context"
	"path/filepath"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
	"shireesh.com/stackgen/internal/fsutil"
)

// ReactTS scaffolds a React + TypeScript frontend with Vite and points its
// dev server proxy at the backend.
type ReactTS struct {
	Runner exec.CommandRunner
}

func (g *ReactTS) Name() string       { return config.FrontendReactTS }
func (g *ReactTS) Requires() []string { return nil }

func (g *ReactTS) Generate(ctx context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}
	if err := config.Require("frontend_port", cfg.FrontendPort); err != nil {
		return err
	}
	if err := config.Require("backend_port", cfg.BackendPort); err != nil {
		return err
	}

	frontend := filepath.Join(projectDir, "frontend")
	if ok, err := fsutil.Exists(frontend); err != nil {
		return err
	} else if ok {
		return generr.WrapWithDetails(generr.EPathConflict, "path already exists", nil, map[string]string{"path": frontend})
	}

	emitLog("Scaffolding React + TypeScript frontend with Vite")
	name, args := cfg.CreateCommand("vite", "frontend", "--template", "react-ts")
	if err := step(ctx, g.Runner, cfg, emitLog, projectDir, name, args...); err != nil {
		return err
	}
	if ok, err := fsutil.Exists(frontend); err != nil {
		return err
	} else if !ok {
		return generr.Newf(generr.EIO, "%s did not create %s", name, frontend)
	}

	emitLog("Installing frontend dependencies")
	name, args = cfg.InstallCommand()
	if err := step(ctx, g.Runner, cfg, emitLog, frontend, name, args...); err != nil {
		return err
	}

	emitLog("Writing vite.config.ts")
	if err := writeTemplate(filepath.Join(frontend, "vite.config.ts"), "react/vite.config.ts.tmpl", cfg); err != nil {
		return err
	}

	emitLog("React frontend ready")
	return nil
}
