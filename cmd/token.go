package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shireesh.com/stackgen/internal/authtoken"
	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/project"
)

type tokenOptions struct {
	secret  string
	subject string
	userID  string
	ttl     time.Duration
	django  bool
	verify  string
}

var tokenOpts tokenOptions

var tokenCmd = &cobra.Command{
	Use:   "token [project-dir]",
	Short: "Mint or verify a development JWT for a generated backend",
	Long: `token signs a short-lived HS256 token the generated backend accepts.

The signing key is read from the project: JWT_SECRET in backend/.env for
Express, SECRET_KEY in backend/core/settings.py for Django. The backend comes
from the project's .stackgen.yml unless --django or --secret is given.`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) > 1 {
			return generr.Newf(generr.EUsage, "expected at most one project directory, got %d arguments", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runToken(cmd, dir)
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.secret, "secret", "", "signing secret (default: read from the project)")
	f.StringVar(&tokenOpts.subject, "sub", "", "subject claim")
	f.StringVar(&tokenOpts.userID, "user-id", "", "user_id claim (required for Django)")
	f.DurationVar(&tokenOpts.ttl, "ttl", authtoken.DefaultTTL, "token lifetime")
	f.BoolVar(&tokenOpts.django, "django", false, "add the claims djangorestframework-simplejwt expects")
	f.StringVar(&tokenOpts.verify, "verify", "", "verify this token instead of minting one")
}

func runToken(cmd *cobra.Command, dir string) error {
	django := tokenOpts.django
	secret := []byte(tokenOpts.secret)
	if len(secret) == 0 {
		backend := config.BackendExpressTS
		if django {
			backend = config.BackendDjango
		} else {
			rec, err := project.LoadRecord(dir)
			if err != nil {
				return generr.Wrap(generr.EUsage, "not a generated project; pass --secret or --django", err)
			}
			backend = rec.Config.Backend
			django = backend == config.BackendDjango
		}
		var err error
		if secret, err = authtoken.ProjectSecret(dir, backend); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if tokenOpts.verify != "" {
		claims, err := authtoken.Verify(secret, tokenOpts.verify)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(claims)
	}

	token, err := authtoken.Mint(secret, authtoken.Options{
		Subject: tokenOpts.subject,
		UserID:  tokenOpts.userID,
		TTL:     tokenOpts.ttl,
		Django:  django,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
