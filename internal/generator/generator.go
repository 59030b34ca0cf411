// Package generator holds the stack generators and the contract they share.
//
// A generator produces one subtree of a project (a backend framework, an auth
// layer, a frontend) and may shell out to the package manager. Generators run
// strictly one after another; the filesystem is the only state they share.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
)

// LogSink receives one human readable line per step.
type LogSink func(msg string)

// Generator is implemented by every stack and feature generator.
type Generator interface {
	// Name is the selector-style identifier, e.g. "express-ts".
	Name() string
	// Requires lists project-relative paths another generator must have
	// produced before this one can run.
	Requires() []string
	// Generate writes the generator's subtree under projectDir.
	Generate(ctx context.Context, cfg *config.Config, projectDir string, emitLog LogSink) error
}

// Check verifies g's declared preconditions against projectDir.
func Check(projectDir string, g Generator) error {
	for _, rel := range g.Requires() {
		path := filepath.Join(projectDir, rel)
		if _, err := os.Stat(path); err != nil {
			return generr.WrapWithDetails(generr.EPrecondition,
				fmt.Sprintf("%s requires %s, which is produced by %s", g.Name(), rel, producerOf(rel)),
				err, map[string]string{"path": path})
		}
	}
	return nil
}

func producerOf(rel string) string {
	switch {
	case strings.HasSuffix(rel, "package.json"):
		return "the express-ts backend generator"
	case strings.HasPrefix(rel, filepath.Join("backend", "core")), strings.HasSuffix(rel, "requirements.txt"):
		return "the django backend generator"
	case rel == "backend":
		return "a backend generator"
	}
	return "an earlier generator"
}

// step runs one external command as part of a generator, turning a failed or
// timed out process into a coded error.
func step(ctx context.Context, r exec.CommandRunner, cfg *config.Config, emitLog LogSink, dir, name string, args ...string) error {
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	details := map[string]string{"command": command, "dir": dir}

	res, err := r.Run(ctx, name, args, exec.RunOpts{
		Dir:     dir,
		Timeout: cfg.InstallTimeout,
		Capture: cfg.CaptureOutput,
	})
	if err != nil {
		return generr.WrapWithDetails(generr.EProcessFailed, "could not run "+command, err, details)
	}
	if res.TimedOut {
		details["timeout"] = cfg.InstallTimeout.String()
		return generr.WrapWithDetails(generr.EProcessTimeout, command+" timed out", nil, details)
	}
	if res.ExitCode != 0 {
		if cfg.CaptureOutput {
			for _, line := range tail(res.Stderr, 10) {
				emitLog("  " + line)
			}
		}
		details["exit_code"] = fmt.Sprint(res.ExitCode)
		return generr.WrapWithDetails(generr.EProcessFailed,
			fmt.Sprintf("%s exited with code %d", command, res.ExitCode), nil, details)
	}
	if cfg.CaptureOutput {
		emitLog(fmt.Sprintf("%s finished in %s", command, res.Duration.Round(100*time.Millisecond)))
	}
	return nil
}

func tail(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
