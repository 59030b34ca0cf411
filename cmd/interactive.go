package cmd

import (
	"github.com/spf13/pflag"

	"shireesh.com/stackgen/internal/config"
	"shireesh.com/stackgen/internal/tui"
)

var (
	backendChoices = []tui.Choice{
		{Value: config.BackendExpressTS, Label: "Express + TypeScript"},
		{Value: config.BackendDjango, Label: "Django + REST framework"},
		{Value: "", Label: "No backend"},
	}
	frontendChoices = []tui.Choice{
		{Value: config.FrontendReactTS, Label: "React + TypeScript (Vite)"},
		{Value: "", Label: "No frontend"},
	}
	authChoices = []tui.Choice{
		{Value: config.AuthJWT, Label: "JWT"},
		{Value: "", Label: "No auth"},
	}
	databaseChoices = []tui.Choice{
		{Value: config.DatabasePostgres, Label: "PostgreSQL"},
		{Value: "", Label: "No database"},
	}
)

// Suggested ports shown as prompt defaults. They are never applied silently.
const (
	suggestedBackendPort  = 4000
	suggestedDjangoPort   = 8000
	suggestedFrontendPort = 5173
)

// fill asks for the options that neither the config file, the environment
// nor a flag provided.
func fill(cfg *config.Config, flags *pflag.FlagSet) error {
	unset := func(key string) bool { return !flags.Changed(config.Keys[key]) }
	var err error

	if cfg.ProjectName == "" {
		if cfg.ProjectName, err = tui.Input("Project name", "", tui.ValidateProjectName); err != nil {
			return err
		}
	}
	if cfg.Backend == "" && unset("backend") {
		if cfg.Backend, err = tui.Select("Choose a backend:", backendChoices); err != nil {
			return err
		}
	}
	if cfg.Frontend == "" && unset("frontend") {
		if cfg.Frontend, err = tui.Select("Choose a frontend:", frontendChoices); err != nil {
			return err
		}
	}
	if cfg.Backend != "" && cfg.Auth == "" && unset("auth") {
		if cfg.Auth, err = tui.Select("Add authentication?", authChoices); err != nil {
			return err
		}
	}
	if cfg.Backend != "" && cfg.Database == "" && unset("database") {
		if cfg.Database, err = tui.Select("Add a database?", databaseChoices); err != nil {
			return err
		}
	}

	if cfg.BackendPort == 0 && (cfg.Backend != "" || cfg.Frontend != "") {
		def := suggestedBackendPort
		if cfg.Backend == config.BackendDjango {
			def = suggestedDjangoPort
		}
		if cfg.BackendPort, err = tui.Port("Backend port", def); err != nil {
			return err
		}
	}
	if cfg.FrontendPort == 0 && cfg.Frontend != "" {
		if cfg.FrontendPort, err = tui.Port("Frontend port", suggestedFrontendPort); err != nil {
			return err
		}
	}
	return nil
}
