package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/fsutil"
	"shireesh.com/stackgen/internal/manifest"
	"shireesh.com/stackgen/internal/sqlschema"
)

const (
	postgresHostPort   = 5432
	psycopgRequirement = "psycopg[binary]>=3.1"
)

var pgNodeDeps = []manifest.Dep{
	{Section: manifest.Dependencies, Name: "pg", Version: "^8.11.3"},
	{Section: manifest.DevDependencies, Name: "@types/pg", Version: "^8.10.9"},
}

// composeData feeds docker-compose.yml.tmpl.
type composeData struct {
	User     string
	Password string
	Database string
	Port     int
}

// Postgres validates the project's SQL schema, writes it to backend/db and
// adds a local PostgreSQL service plus the driver for the selected backend.
type Postgres struct{}

func (g *Postgres) Name() string       { return config.DatabasePostgres }
func (g *Postgres) Requires() []string { return []string{"backend"} }

func (g *Postgres) Generate(_ context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}
	if err := config.Require("project_name", cfg.ProjectName); err != nil {
		return err
	}

	backend := filepath.Join(projectDir, "backend")
	compose := filepath.Join(projectDir, "docker-compose.yml")
	if ok, err := fsutil.Exists(compose); err != nil {
		return err
	} else if ok {
		return generr.WrapWithDetails(generr.EPathConflict, "path already exists", nil, map[string]string{"path": compose})
	}

	var src []byte
	var err error
	if cfg.SchemaFile != "" {
		emitLog("Validating schema " + cfg.SchemaFile)
		src, err = fsutil.ReadFile(cfg.SchemaFile)
	} else {
		emitLog("Validating default users schema")
		src, err = render("postgres/schema.sql", nil)
	}
	if err != nil {
		return err
	}
	schema, err := sqlschema.Parse(string(src))
	if err != nil {
		return err
	}
	emitLog("Schema: " + schema.Summary())

	emitLog("Writing db/schema.sql")
	db := filepath.Join(backend, "db")
	if err := fsutil.MkdirAll(db); err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(db, "schema.sql"), []byte(schema.Render())); err != nil {
		return err
	}

	data := composeData{
		User:     "app",
		Password: "app",
		Database: databaseName(cfg.ProjectName),
		Port:     postgresHostPort,
	}
	emitLog("Writing docker-compose.yml")
	if err := writeTemplate(compose, "postgres/docker-compose.yml.tmpl", data); err != nil {
		return err
	}

	url := fmt.Sprintf("postgres://%s:%s@localhost:%d/%s", data.User, data.Password, data.Port, data.Database)
	added, err := ensureEnv(filepath.Join(backend, ".env"), map[string]string{"DATABASE_URL": url})
	if err != nil {
		return err
	}
	if len(added) > 0 {
		emitLog("Added DATABASE_URL to backend/.env")
	}

	switch cfg.Backend {
	case config.BackendExpressTS:
		emitLog("Adding pg to backend/package.json")
		return manifest.AddDependencies(filepath.Join(backend, "package.json"), pgNodeDeps...)
	case config.BackendDjango:
		emitLog("Adding psycopg to requirements.txt")
		_, err := addRequirement(filepath.Join(backend, "requirements.txt"), psycopgRequirement)
		return err
	}
	return nil
}

// databaseName turns a project name into a conservative PostgreSQL identifier.
func databaseName(project string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(project) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "app_" + name
	}
	return name
}
