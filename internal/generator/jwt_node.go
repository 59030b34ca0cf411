package generator

import (
	"context"
	"path/filepath"
	"strings"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/fsutil"
	"shireesh.com/stackgen/internal/manifest"
)

// JWTNode adds bearer-token middleware to an Express backend.
type JWTNode struct{}

var jwtNodeDeps = []manifest.Dep{
	{Section: manifest.Dependencies, Name: "jsonwebtoken", Version: "^9.0.2"},
	{Section: manifest.DevDependencies, Name: "@types/jsonwebtoken", Version: "^9.0.5"},
}

func (g *JWTNode) Name() string { return "jwt-node" }

func (g *JWTNode) Requires() []string {
	return []string{filepath.Join("backend", "package.json")}
}

func (g *JWTNode) Generate(_ context.Context, _ *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}

	backend := filepath.Join(projectDir, "backend")
	middleware := filepath.Join(backend, "src", "middleware")

	emitLog("Adding jsonwebtoken to backend/package.json")
	if err := manifest.AddDependencies(filepath.Join(backend, "package.json"), jwtNodeDeps...); err != nil {
		return err
	}

	emitLog("Writing src/middleware/middleware.ts")
	if err := fsutil.MkdirAll(middleware); err != nil {
		return err
	}
	if err := writeTemplate(filepath.Join(middleware, "middleware.ts"), "jwt/middleware.ts", nil); err != nil {
		return err
	}

	secret, err := randomSecret()
	if err != nil {
		return err
	}
	added, err := ensureEnv(filepath.Join(backend, ".env"), map[string]string{"JWT_SECRET": secret})
	if err != nil {
		return err
	}
	if len(added) > 0 {
		emitLog("Generated " + strings.Join(added, ", ") + " in backend/.env")
	} else {
		emitLog("Keeping existing JWT_SECRET in backend/.env")
	}
	return nil
}
