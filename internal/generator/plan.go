package generator

import (
	"context"
	"fmt"
	"time"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
)

// Status of one generator in a run.
type Status string

const (
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records how one planned generator ended.
type Result struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Plan returns the generators cfg selects, in the order they must run:
// backend framework, database, backend auth, dependency install, frontend.
func Plan(cfg *config.Config, r exec.CommandRunner) ([]Generator, error) {
	var plan []Generator

	switch cfg.Backend {
	case "":
	case config.BackendExpressTS:
		plan = append(plan, &ExpressTS{Runner: r})
	case config.BackendDjango:
		plan = append(plan, &Django{Runner: r})
	default:
		return nil, generr.Newf(generr.EInvalidConfig, "unknown backend %q", cfg.Backend)
	}

	switch cfg.Database {
	case "":
	case config.DatabasePostgres:
		plan = append(plan, &Postgres{})
	default:
		return nil, generr.Newf(generr.EInvalidConfig, "unknown database %q", cfg.Database)
	}

	switch {
	case cfg.Auth == "":
	case cfg.Auth == config.AuthJWT && cfg.Backend == config.BackendExpressTS:
		plan = append(plan, &JWTNode{})
	case cfg.Auth == config.AuthJWT && cfg.Backend == config.BackendDjango:
		plan = append(plan, &JWTDjango{})
	default:
		return nil, generr.Newf(generr.EInvalidConfig, "auth %q is not available for backend %q", cfg.Auth, cfg.Backend)
	}

	if cfg.Backend != "" && (cfg.Auth != "" || cfg.Database != "") {
		plan = append(plan, &BackendInstall{Runner: r, Backend: cfg.Backend})
	}

	switch cfg.Frontend {
	case "":
	case config.FrontendReactTS:
		plan = append(plan, &ReactTS{Runner: r})
	default:
		return nil, generr.Newf(generr.EInvalidConfig, "unknown frontend %q", cfg.Frontend)
	}

	return plan, nil
}

// Names lists the generator names of a plan.
func Names(plan []Generator) []string {
	names := make([]string, len(plan))
	for i, g := range plan {
		names[i] = g.Name()
	}
	return names
}

// Run executes plan sequentially against projectDir and stops at the first
// failure. Generators after a failure are reported as skipped. Files written
// before the failure stay in place.
func Run(ctx context.Context, plan []Generator, cfg *config.Config, projectDir string, emitLog LogSink) ([]Result, error) {
	results := make([]Result, len(plan))
	for i, g := range plan {
		results[i] = Result{Name: g.Name(), Status: StatusSkipped}
	}

	for i, g := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := g.Name()
		sink := func(msg string) {
			emitLog(fmt.Sprintf("[%s] %s", name, msg))
		}

		start := time.Now()
		err := g.Generate(ctx, cfg, projectDir, sink)
		results[i].Duration = time.Since(start)
		if err != nil {
			results[i].Status = StatusFailed
			results[i].Err = err
			return results, err
		}
		results[i].Status = StatusDone
	}
	return results, nil
}
