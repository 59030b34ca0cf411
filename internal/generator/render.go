package generator

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/joho/godotenv"

	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/fsutil"
)

//go:embed templates
var templates embed.FS

// render returns the named template. Files ending in .tmpl are executed
// against data; everything else is copied verbatim.
func render(name string, data any) ([]byte, error) {
	raw, err := templates.ReadFile(path.Join("templates", name))
	if err != nil {
		return nil, generr.Wrap(generr.EIO, "template "+name+" not found", err)
	}
	if !strings.HasSuffix(name, ".tmpl") {
		return raw, nil
	}

	tpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, generr.Wrap(generr.EParse, "parse template "+name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, generr.Wrap(generr.EParse, "execute template "+name, err)
	}
	return buf.Bytes(), nil
}

func writeTemplate(dst, name string, data any) error {
	out, err := render(name, data)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(dst, out)
}

// ensureEnv adds the missing keys of values to the dotenv file at path,
// creating it if needed. Existing keys keep their value. It returns the keys
// it added.
func ensureEnv(path string, values map[string]string) ([]string, error) {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		env, err = godotenv.Read(path)
		if err != nil {
			return nil, generr.Wrap(generr.EParse, "read "+path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, generr.Wrap(generr.EIO, "stat "+path, err)
	}

	var added []string
	for k, v := range values {
		if _, ok := env[k]; ok {
			continue
		}
		env[k] = v
		added = append(added, k)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := godotenv.Write(env, path); err != nil {
		return nil, generr.Wrap(generr.EIO, "write "+path, err)
	}
	return added, nil
}

// addRequirement appends a pip requirement line unless a line for the same
// distribution is already present.
func addRequirement(path, requirement string) (bool, error) {
	added := false
	err := fsutil.PatchFile(path, func(data []byte) ([]byte, error) {
		want := distribution(requirement)
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if distribution(sc.Text()) == want {
				return data, nil
			}
		}
		out := data
		if len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
		added = true
		return append(out, requirement+"\n"...), nil
	})
	return added, err
}

// distribution extracts the lower-cased project name from a requirement line.
func distribution(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexAny(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexAny(line, "[<>=!~; "); i >= 0 {
		line = line[:i]
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(line), "_", "-"))
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", generr.Wrap(generr.EIO, "generate secret", err)
	}
	return hex.EncodeToString(b), nil
}
