// Package authtoken mints and checks development JWTs for generated backends.
//
// Tokens are HS256-signed. For Express backends the key is JWT_SECRET from
// backend/.env, which the generated middleware verifies against. For Django
// backends simplejwt signs with SECRET_KEY unless configured otherwise, and
// expects token_type, jti and user_id claims.
package authtoken

import (
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/fsutil"
)

const DefaultTTL = time.Hour

// Options shape the claims of a minted token.
type Options struct {
	Subject string
	// UserID is emitted as a number when it parses as one.
	UserID string
	TTL    time.Duration
	// Django adds the claims djangorestframework-simplejwt checks.
	Django bool
	Now    func() time.Time
}

// Mint signs a token with secret.
func Mint(secret []byte, opts Options) (string, error) {
	if len(secret) == 0 {
		return "", generr.New(generr.EMissingOption, "a signing secret is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	issued := now()

	claims := jwt.MapClaims{
		"iat": jwt.NewNumericDate(issued),
		"exp": jwt.NewNumericDate(issued.Add(opts.TTL)),
	}
	if opts.Subject != "" {
		claims["sub"] = opts.Subject
	}
	if opts.Django {
		if opts.UserID == "" {
			return "", generr.New(generr.EMissingOption, "user id is required for Django tokens")
		}
		claims["token_type"] = "access"
		claims["jti"] = uuid.NewString()
		if n, err := strconv.ParseInt(opts.UserID, 10, 64); err == nil {
			claims["user_id"] = n
		} else {
			claims["user_id"] = opts.UserID
		}
	} else if opts.UserID != "" {
		claims["user_id"] = opts.UserID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", generr.Wrap(generr.EIO, "sign token", err)
	}
	return signed, nil
}

// Verify parses token, checking its HS256 signature and expiry.
func Verify(secret []byte, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuedAt())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, generr.Wrap(generr.EPrecondition, "token expired", err)
		}
		return nil, generr.Wrap(generr.EParse, "invalid token", err)
	}
	return claims, nil
}

// SecretFromEnvFile reads JWT_SECRET from a dotenv file.
func SecretFromEnvFile(path string) ([]byte, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, generr.Wrap(generr.EIO, "read "+path, err)
	}
	secret := env["JWT_SECRET"]
	if secret == "" {
		return nil, generr.WrapWithDetails(generr.EMissingOption, "JWT_SECRET is not set", nil, map[string]string{"path": path})
	}
	return []byte(secret), nil
}

var secretKeyRe = regexp.MustCompile(`(?m)^SECRET_KEY[ \t]*=[ \t]*(?:'([^'\n]*)'|"([^"\n]*)")`)

// DjangoSecretKey extracts the SECRET_KEY string literal from settings.py.
func DjangoSecretKey(settingsPath string) ([]byte, error) {
	data, err := fsutil.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}
	m := secretKeyRe.FindSubmatch(data)
	if m == nil {
		return nil, generr.WrapWithDetails(generr.EAnchorNotFound, "SECRET_KEY is not a string literal", nil, map[string]string{"path": settingsPath})
	}
	if len(m[1]) > 0 {
		return m[1], nil
	}
	return m[2], nil
}

// ProjectSecret finds the signing key of a generated project's backend.
func ProjectSecret(projectDir, backend string) ([]byte, error) {
	switch backend {
	case config.BackendDjango:
		return DjangoSecretKey(filepath.Join(projectDir, "backend", "core", "settings.py"))
	case config.BackendExpressTS:
		return SecretFromEnvFile(filepath.Join(projectDir, "backend", ".env"))
	}
	return nil, generr.Newf(generr.EInvalidConfig, "backend %q does not issue tokens", backend)
}
