package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lithammer/dedent"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
	"shireesh.com/stackgen/internal/fsutil"
	"shireesh.com/stackgen/internal/pysettings"
)

var djangoApps = []string{"rest_framework", "corsheaders", "main"}

const corsMiddleware = "corsheaders.middleware.CorsMiddleware"

// Django generates a Django + REST framework backend: a "core" project with
// a "main" app, laid out so that the jwt-django generator can patch it.
type Django struct {
	Runner exec.CommandRunner
}

func (g *Django) Name() string       { return config.BackendDjango }
func (g *Django) Requires() []string { return nil }

func (g *Django) Generate(ctx context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		return err
	}
	if err := config.Require("backend_port", cfg.BackendPort); err != nil {
		return err
	}
	if err := config.Require("python", cfg.Python); err != nil {
		return err
	}

	backend := filepath.Join(projectDir, "backend")
	core := filepath.Join(backend, "core")
	mainApp := filepath.Join(backend, "main")

	emitLog("Creating Django backend in backend/")
	if err := fsutil.Mkdir(backend); err != nil {
		return err
	}

	emitLog("Writing requirements.txt")
	if err := writeTemplate(filepath.Join(backend, "requirements.txt"), "django/requirements.txt", nil); err != nil {
		return err
	}

	emitLog("Installing backend dependencies")
	if err := step(ctx, g.Runner, cfg, emitLog, backend, cfg.Python, "-m", "pip", "install", "-r", "requirements.txt"); err != nil {
		return err
	}

	emitLog("Running django startproject core")
	if err := step(ctx, g.Runner, cfg, emitLog, backend, cfg.Python, "-m", "django", "startproject", "core", "."); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(core, "settings.py")); err != nil {
		return generr.Wrap(generr.EIO, "startproject did not create core/settings.py", err)
	}

	emitLog("Creating the main app")
	if err := step(ctx, g.Runner, cfg, emitLog, backend, cfg.Python, "manage.py", "startapp", "main"); err != nil {
		return err
	}
	if err := fsutil.MkdirAll(mainApp); err != nil {
		return err
	}

	emitLog("Writing main/views.py and main/urls.py")
	if err := writeTemplate(filepath.Join(mainApp, "views.py"), "django/main_views.py", nil); err != nil {
		return err
	}
	if err := writeTemplate(filepath.Join(mainApp, "urls.py"), "django/main_urls.py", nil); err != nil {
		return err
	}

	emitLog("Registering apps and CORS in core/settings.py")
	err := fsutil.PatchFile(filepath.Join(core, "settings.py"), func(data []byte) ([]byte, error) {
		return patchDjangoSettings(string(data), cfg)
	})
	if err != nil {
		return err
	}

	emitLog("Writing core/urls.py")
	if err := writeTemplate(filepath.Join(core, "urls.py"), "django/urls.py", nil); err != nil {
		return err
	}

	emitLog("Writing run.sh")
	runScript := filepath.Join(backend, "run.sh")
	if err := writeTemplate(runScript, "django/run.sh.tmpl", cfg); err != nil {
		return err
	}
	if err := os.Chmod(runScript, 0o755); err != nil {
		return generr.Wrap(generr.EIO, "chmod "+runScript, err)
	}

	emitLog("Django backend ready")
	return nil
}

func patchDjangoSettings(src string, cfg *config.Config) ([]byte, error) {
	out, err := pysettings.AppendToList(src, "INSTALLED_APPS", djangoApps...)
	if err != nil {
		return nil, err
	}
	out, err = pysettings.PrependToList(out, "MIDDLEWARE", corsMiddleware)
	if err != nil {
		return nil, err
	}
	if cfg.FrontendPort != 0 && !pysettings.HasAssignment(out, "CORS_ALLOWED_ORIGINS") {
		out += dedent.Dedent(fmt.Sprintf(`

			CORS_ALLOWED_ORIGINS = [
			    'http://localhost:%d',
			]
		`, cfg.FrontendPort))
	}
	return []byte(out), nil
}
