package generator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/exec"
)

type call struct {
	Name string
	Args []string
	Dir  string
}

func (c call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// stubRunner records commands instead of running them. effect lets a test
// emulate what the real tool would have written to disk.
type stubRunner struct {
	calls    []call
	exit     map[string]int
	timedOut map[string]bool
	effect   func(c call) error
}

func (s *stubRunner) Run(_ context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	c := call{Name: name, Args: args, Dir: opts.Dir}
	s.calls = append(s.calls, c)
	if s.timedOut[c.String()] {
		return exec.CmdResult{ExitCode: exec.ExitTimeout, TimedOut: true}, nil
	}
	if code := s.exit[c.String()]; code != 0 {
		return exec.CmdResult{ExitCode: code, Stderr: "npm ERR! code E404\n"}, nil
	}
	if s.effect != nil {
		if err := s.effect(c); err != nil {
			return exec.CmdResult{}, err
		}
	}
	return exec.CmdResult{}, nil
}

func (s *stubRunner) commands() []string {
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.String()
	}
	return out
}

type logRecorder struct {
	lines []string
}

func (l *logRecorder) sink(msg string) {
	l.lines = append(l.lines, msg)
}

func (l *logRecorder) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
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

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// tree lists every path under root relative to it, sorted, using slashes.
func tree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if rel != "." {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}

// a trimmed settings.py as produced by `django-admin startproject core`
const startprojectSettings = `from pathlib import Path

BASE_DIR = Path(__file__).resolve().parent.parent

SECRET_KEY = "django-insecure-test-key"

DEBUG = True

ALLOWED_HOSTS = []

INSTALLED_APPS = [
    "django.contrib.admin",
    "django.contrib.auth",
    "django.contrib.contenttypes",
    "django.contrib.sessions",
    "django.contrib.messages",
    "django.contrib.staticfiles",
]

MIDDLEWARE = [
    "django.middleware.security.SecurityMiddleware",
    "django.contrib.sessions.middleware.SessionMiddleware",
    "django.middleware.common.CommonMiddleware",
]

ROOT_URLCONF = "core.urls"
`

const startprojectURLs = `from django.contrib import admin
from django.urls import path

urlpatterns = [
    path("admin/", admin.site.urls),
]
`

// djangoEffect emulates startproject and startapp on disk.
func djangoEffect(projectDir string) func(c call) error {
	backend := filepath.Join(projectDir, "backend")
	return func(c call) error {
		switch {
		case strings.Contains(c.String(), "startproject core"):
			core := filepath.Join(backend, "core")
			if err := os.MkdirAll(core, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(core, "settings.py"), []byte(startprojectSettings), 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(core, "urls.py"), []byte(startprojectURLs), 0o644); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(backend, "manage.py"), []byte("#!/usr/bin/env python\n"), 0o755)
		case strings.Contains(c.String(), "startapp main"):
			mainApp := filepath.Join(backend, "main")
			if err := os.MkdirAll(mainApp, 0o755); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(mainApp, "views.py"), []byte("# Create your views here.\n"), 0o644)
		}
		return nil
	}
}

// viteEffect emulates `npm create vite` creating the frontend directory.
func viteEffect(projectDir string) func(c call) error {
	return func(c call) error {
		if strings.Contains(c.String(), "create vite") {
			return os.MkdirAll(filepath.Join(projectDir, "frontend", "src"), 0o755)
		}
		return nil
	}
}
