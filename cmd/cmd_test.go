package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"shireesh.com/stackgen/internal/authtoken"
	"shireesh.com/stackgen/internal/config"
	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/project"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		for _, c := range append(rootCmd.Commands(), rootCmd) {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				f.Changed = false
				_ = f.Value.Set(f.DefValue)
			})
		}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStacks(t *testing.T) {
	out, err := execute(t, "stacks")
	if err != nil {
		t.Fatalf("stacks: %v", err)
	}
	for _, s := range []string{
		"--backend    express-ts, django",
		"express-ts -> postgres -> jwt-node -> backend-install -> react-ts",
		"django -> postgres -> jwt-django -> backend-install -> react-ts",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "shop", "--no-input", "--out", dir, "--backend", "express-ts")
	if generr.GetCode(err) != generr.EInvalidConfig {
		t.Fatalf("err = %v, want E_INVALID_CONFIG", err)
	}
	if generr.ExitCode(err) != 2 {
		t.Errorf("exit code = %d", generr.ExitCode(err))
	}
	if _, err := os.Stat(filepath.Join(dir, "shop")); !os.IsNotExist(err) {
		t.Error("project directory created for an invalid config")
	}
}

func TestGenerate_NameTwice(t *testing.T) {
	_, err := execute(t, "shop", "--name", "other", "--no-input")
	if generr.GetCode(err) != generr.EUsage {
		t.Fatalf("err = %v, want E_USAGE", err)
	}
}

func TestGenerate_BadFlag(t *testing.T) {
	_, err := execute(t, "--backend-port", "http")
	if generr.GetCode(err) != generr.EUsage {
		t.Fatalf("err = %v, want E_USAGE", err)
	}
}

func expressProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "backend"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "backend", ".env"), []byte("JWT_SECRET=dev-secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &project.Record{ID: "test", Config: config.Config{ProjectName: "shop", Backend: config.BackendExpressTS}}
	if err := project.SaveRecord(dir, rec); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestToken_MintAndVerify(t *testing.T) {
	dir := expressProject(t)

	out, err := execute(t, "token", dir, "--sub", "alice")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	token := strings.TrimSpace(out)
	claims, err := authtoken.Verify([]byte("dev-secret"), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims["sub"] != "alice" {
		t.Errorf("claims = %v", claims)
	}

	out, err = execute(t, "token", dir, "--verify", token)
	if err != nil {
		t.Fatalf("token --verify: %v", err)
	}
	if !strings.Contains(out, `"sub": "alice"`) {
		t.Errorf("verify output:\n%s", out)
	}
}

func TestToken_NotAProject(t *testing.T) {
	_, err := execute(t, "token", t.TempDir())
	if generr.GetCode(err) != generr.EUsage {
		t.Fatalf("err = %v, want E_USAGE", err)
	}
}

func TestToken_ExplicitSecret(t *testing.T) {
	out, err := execute(t, "token", t.TempDir(), "--secret", "s", "--django", "--user-id", "7")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := authtoken.Verify([]byte("s"), strings.TrimSpace(out))
	if err != nil {
		t.Fatal(err)
	}
	if claims["token_type"] != "access" || claims["user_id"] != float64(7) {
		t.Errorf("claims = %v", claims)
	}
}
