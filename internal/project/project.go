// Package project creates a project directory and drives the planned
// generators through it.
package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"shireesh.com/stackgen/internal/compressor"
	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/exec"
	"shireesh.com/stackgen/internal/fsutil"
	"shireesh.com/stackgen/internal/generator"
)

// RecordFile is written at the project root after every run.
const RecordFile = ".stackgen.yml"

// Options controls where and how a project is created.
type Options struct {
	// OutDir is the parent of the project directory. Defaults to ".".
	OutDir string
	// Archive, when set, is the path of a zip of the finished project.
	Archive string
	Runner  exec.CommandRunner
	Log     generator.LogSink
	// Now stamps the record. Defaults to time.Now.
	Now func() time.Time
}

// Record describes one generation run.
type Record struct {
	ID         string            `yaml:"id"`
	CreatedAt  time.Time         `yaml:"created_at"`
	Dir        string            `yaml:"dir"`
	Plan       []string          `yaml:"plan"`
	Config     config.Config     `yaml:"config"`
	Generators []GeneratorRecord `yaml:"generators"`
	Archive    string            `yaml:"archive,omitempty"`
	Error      string            `yaml:"error,omitempty"`
}

type GeneratorRecord struct {
	Name     string           `yaml:"name"`
	Status   generator.Status `yaml:"status"`
	Duration time.Duration    `yaml:"duration"`
	Error    string           `yaml:"error,omitempty"`
}

// Create validates cfg, creates <OutDir>/<project_name> and runs the plan in
// it. The record is written even when a generator fails; the returned error
// is then the generator's.
func Create(ctx context.Context, cfg *config.Config, opts Options) (*Record, error) {
	if err := config.Require("project_name", cfg.ProjectName); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.Runner == nil {
		opts.Runner = exec.NewRealRunner()
	}
	if opts.Log == nil {
		opts.Log = func(string) {}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	plan, err := generator.Plan(cfg, opts.Runner)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Join(opts.OutDir, cfg.ProjectName))
	if err != nil {
		return nil, generr.Wrap(generr.EIO, "resolve project directory", err)
	}
	if opts.Archive != "" {
		if err := checkArchivePath(dir, opts.Archive); err != nil {
			return nil, err
		}
	}
	if err := prepareDir(dir); err != nil {
		return nil, err
	}

	opts.Log("Creating " + cfg.ProjectName + " in " + dir)
	rec := &Record{
		ID:        uuid.NewString(),
		CreatedAt: opts.Now().UTC(),
		Dir:       dir,
		Plan:      generator.Names(plan),
		Config:    *cfg,
	}

	results, runErr := generator.Run(ctx, plan, cfg, dir, opts.Log)
	for _, r := range results {
		gr := GeneratorRecord{Name: r.Name, Status: r.Status, Duration: r.Duration.Round(time.Millisecond)}
		if r.Err != nil {
			gr.Error = r.Err.Error()
		}
		rec.Generators = append(rec.Generators, gr)
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	} else if opts.Archive != "" {
		rec.Archive = opts.Archive
	}

	if err := SaveRecord(dir, rec); err != nil {
		if runErr != nil {
			return rec, runErr
		}
		return rec, err
	}
	if runErr != nil {
		return rec, runErr
	}

	if opts.Archive != "" {
		opts.Log("Archiving project to " + opts.Archive)
		if err := compressor.ZipDir(dir, opts.Archive, compressor.SkipDependencyDirs); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Results rebuilds generator results from a record, for reporting.
func (r *Record) Results() []generator.Result {
	out := make([]generator.Result, len(r.Generators))
	for i, g := range r.Generators {
		out[i] = generator.Result{Name: g.Name, Status: g.Status, Duration: g.Duration}
		if g.Error != "" {
			out[i].Err = errors.New(g.Error)
		}
	}
	return out
}

// prepareDir creates dir. An existing empty directory is reused; anything
// else at that path is a conflict.
func prepareDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) == 0:
		return nil
	case err == nil:
		return generr.WrapWithDetails(generr.EPathConflict, "project directory is not empty", nil, map[string]string{"path": dir})
	case os.IsNotExist(err):
		return fsutil.MkdirAll(dir)
	}
	return generr.WrapWithDetails(generr.EPathConflict, "project path is not a usable directory", err, map[string]string{"path": dir})
}

func checkArchivePath(dir, archive string) error {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return generr.Wrap(generr.EInvalidConfig, "resolve archive path", err)
	}
	if strings.HasPrefix(abs, dir+string(os.PathSeparator)) {
		return generr.WrapWithDetails(generr.EInvalidConfig, "archive must be written outside the project directory", nil, map[string]string{"archive": archive})
	}
	return nil
}

// SaveRecord writes rec to dir/.stackgen.yml.
func SaveRecord(dir string, rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return generr.Wrap(generr.EIO, "encode project record", err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(dir, RecordFile), data, fsutil.FilePerm)
}

// LoadRecord reads the record of a previously generated project.
func LoadRecord(dir string) (*Record, error) {
	data, err := fsutil.ReadFile(filepath.Join(dir, RecordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, generr.Wrap(generr.EParse, "invalid "+RecordFile, err)
	}
	return &rec, nil
}
