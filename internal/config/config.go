// Package config loads and validates the options every generator consumes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	generr "shireesh.com/stackgen/internal/errors"
)

// Stack selectors.
const (
	BackendExpressTS = "express-ts"
	BackendDjango    = "django"
	FrontendReactTS  = "react-ts"
	AuthJWT          = "jwt"
	DatabasePostgres = "postgres"
)

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "stackgen.yaml"

// EnvPrefix prefixes every environment override, e.g. STACKGEN_BACKEND_PORT.
const EnvPrefix = "STACKGEN"

// Config is the flat set of options handed to generators.
// Zero values mean "not set"; generators fail fast on options they need.
type Config struct {
	ProjectName string `mapstructure:"project_name" yaml:"project_name" validate:"omitempty,excludesall=/\\"`

	BackendPort  int `mapstructure:"backend_port" yaml:"backend_port,omitempty" validate:"omitempty,min=1,max=65535"`
	FrontendPort int `mapstructure:"frontend_port" yaml:"frontend_port,omitempty" validate:"omitempty,min=1,max=65535,nefield=BackendPort"`

	Backend    string `mapstructure:"backend" yaml:"backend,omitempty" validate:"omitempty,oneof=express-ts django"`
	Frontend   string `mapstructure:"frontend" yaml:"frontend,omitempty" validate:"omitempty,oneof=react-ts"`
	Auth       string `mapstructure:"auth" yaml:"auth,omitempty" validate:"omitempty,oneof=jwt"`
	Database   string `mapstructure:"database" yaml:"database,omitempty" validate:"omitempty,oneof=postgres"`
	SchemaFile string `mapstructure:"schema_file" yaml:"schema_file,omitempty"`

	PackageManager string        `mapstructure:"package_manager" yaml:"package_manager" validate:"required,oneof=npm pnpm yarn"`
	Python         string        `mapstructure:"python" yaml:"python" validate:"required"`
	InstallTimeout time.Duration `mapstructure:"install_timeout" yaml:"install_timeout"`
	CaptureOutput  bool          `mapstructure:"capture_output" yaml:"capture_output"`
}

// Keys maps every config key to the command line flag that overrides it.
var Keys = map[string]string{
	"project_name":    "name",
	"backend_port":    "backend-port",
	"frontend_port":   "frontend-port",
	"backend":         "backend",
	"frontend":        "frontend",
	"auth":            "auth",
	"database":        "database",
	"schema_file":     "schema-file",
	"package_manager": "package-manager",
	"python":          "python",
	"install_timeout": "install-timeout",
	"capture_output":  "capture-output",
}

// Defaults for tool knobs. Stack selectors and ports intentionally have none.
var Defaults = map[string]any{
	"package_manager": "npm",
	"python":          "python3",
	"install_timeout": 10 * time.Minute,
	"capture_output":  false,
}

// Load reads configuration from file, environment and flags, in increasing
// order of precedence. path may be empty, in which case DefaultFileName is
// used if present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key := range Keys {
		// AutomaticEnv only applies to keys viper already knows about
		if err := v.BindEnv(key); err != nil {
			return nil, generr.Wrap(generr.EInvalidConfig, "bind env "+key, err)
		}
	}

	if flags != nil {
		for key, name := range Keys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, generr.Wrap(generr.EInvalidConfig, "bind flag --"+name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, generr.Wrap(generr.EInvalidConfig, "error reading config file", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, generr.Wrap(generr.EInvalidConfig, "unable to decode configuration", err)
	}
	return cfg, nil
}

// Require returns an E_MISSING_OPTION error when value is the zero value.
func Require[T comparable](key string, value T) error {
	var zero T
	if value == zero {
		return generr.Newf(generr.EMissingOption, "%s is required", key)
	}
	return nil
}

// InstallCommand returns the package manager invocation that installs the
// dependencies of the manifest in the working directory.
func (c *Config) InstallCommand() (string, []string) {
	return c.PackageManager, []string{"install"}
}

// CreateCommand returns the package manager invocation that runs a
// create-<tool> scaffolder. npm needs "--" before arguments meant for the tool.
func (c *Config) CreateCommand(tool string, args ...string) (string, []string) {
	out := []string{"create", tool}
	if c.PackageManager == "npm" {
		out[1] = tool + "@latest"
		out = append(out, args[:min(1, len(args))]...)
		if len(args) > 1 {
			out = append(out, "--")
			out = append(out, args[1:]...)
		}
		return c.PackageManager, out
	}
	return c.PackageManager, append(out, args...)
}

func (c *Config) String() string {
	return fmt.Sprintf("%s(backend=%q frontend=%q auth=%q database=%q)", c.ProjectName, c.Backend, c.Frontend, c.Auth, c.Database)
}
