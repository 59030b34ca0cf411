package generator

import (
	"context"
	"path/filepath"

	"github.com/lithammer/dedent"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/fsutil"
	"shireesh.com/stackgen/internal/pysettings"
)

// RestFrameworkBlock is inserted right after INSTALLED_APPS.
var RestFrameworkBlock = "\n" + dedent.Dedent(`
	REST_FRAMEWORK = {
	    'DEFAULT_AUTHENTICATION_CLASSES': [
	        'rest_framework_simplejwt.authentication.JWTAuthentication',
	    ],
	}
`)

const simpleJWTRequirement = "djangorestframework-simplejwt>=5.3"

// JWTDjango wires djangorestframework-simplejwt into a Django backend.
type JWTDjango struct{}

func (g *JWTDjango) Name() string { return "jwt-django" }

func (g *JWTDjango) Requires() []string {
	return []string{
		filepath.Join("backend", "core", "settings.py"),
		filepath.Join("backend", "core", "urls.py"),
	}
}

func (g *JWTDjango) Generate(_ context.Context, _ *config.Config, projectDir string, emitLog LogSink) error {
	if err := Check(projectDir, g); err != nil {
		emitLog("Error configuring Django settings: " + err.Error())
		return err
	}

	core := filepath.Join(projectDir, "backend", "core")

	emitLog("Configuring JWT authentication in core/settings.py")
	err := fsutil.PatchFile(filepath.Join(core, "settings.py"), func(data []byte) ([]byte, error) {
		src := string(data)
		if pysettings.HasAssignment(src, "REST_FRAMEWORK") {
			emitLog("REST_FRAMEWORK already configured, leaving settings.py as is")
			return data, nil
		}
		out, err := pysettings.InsertAfterList(src, "INSTALLED_APPS", RestFrameworkBlock)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	})
	if err != nil {
		emitLog("Error configuring Django settings: " + err.Error())
		return err
	}

	emitLog("Writing token routes to core/urls.py")
	urls, err := render("jwt/urls.py", nil)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(core, "urls.py"), urls, fsutil.FilePerm); err != nil {
		return err
	}

	requirements := filepath.Join(projectDir, "backend", "requirements.txt")
	if ok, err := fsutil.Exists(requirements); err != nil {
		return err
	} else if ok {
		added, err := addRequirement(requirements, simpleJWTRequirement)
		if err != nil {
			return err
		}
		if added {
			emitLog("Added " + simpleJWTRequirement + " to requirements.txt")
		}
	}
	return nil
}
