package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	generr "shireesh.com/stackgen/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their config key rather than the Go field name
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks ranges, enums and the cross-field rules between stacks.
// The returned error is always E_INVALID_CONFIG.
func Validate(cfg *Config) error {
	if cfg == nil {
		return generr.New(generr.EInvalidConfig, "configuration is nil")
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return generr.WrapWithDetails(generr.EInvalidConfig, describe(verrs[0]), err, map[string]string{
				"field": verrs[0].Field(),
			})
		}
		return generr.Wrap(generr.EInvalidConfig, "invalid configuration", err)
	}

	if cfg.InstallTimeout < 0 {
		return invalid("install_timeout", "install_timeout must not be negative")
	}
	if cfg.ProjectName == "" {
		return invalid("project_name", "project_name is required")
	}
	if cfg.ProjectName == "." || cfg.ProjectName == ".." {
		return invalid("project_name", "project_name must name a new directory")
	}
	if cfg.Backend == "" && cfg.Frontend == "" {
		return invalid("backend", "select at least one of backend or frontend")
	}
	if (cfg.Backend != "" || cfg.Frontend != "") && cfg.BackendPort == 0 {
		// the frontend proxies /api to the backend port even without a generated backend
		return invalid("backend_port", "backend_port is required")
	}
	if cfg.Frontend != "" && cfg.FrontendPort == 0 {
		return invalid("frontend_port", "frontend_port is required when a frontend is selected")
	}
	if cfg.Auth != "" && cfg.Backend == "" {
		return invalid("auth", "auth requires a backend")
	}
	if cfg.Database != "" && cfg.Backend == "" {
		return invalid("database", "database requires a backend")
	}
	if cfg.SchemaFile != "" && cfg.Database == "" {
		return invalid("schema_file", "schema_file requires database")
	}
	return nil
}

func invalid(field, msg string) error {
	return generr.WrapWithDetails(generr.EInvalidConfig, msg, nil, map[string]string{"field": field})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fmt.Sprint(fe.Value()))
	case "min", "max":
		return fmt.Sprintf("%s must be between 1 and 65535, got %v", fe.Field(), fe.Value())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	case "excludesall":
		return fmt.Sprintf("%s must be a plain directory name", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
