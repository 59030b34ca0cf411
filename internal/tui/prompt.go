package tui

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"

	generr "shireesh.com/stackgen/internal/errors"
)

// Interactive reports whether stdin is a terminal we can prompt on.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Input asks for a free-form value.
func Input(label, def string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	result, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(result), nil
}

// Port asks for a TCP port, offering def.
func Port(label string, def int) (int, error) {
	defStr := ""
	if def > 0 {
		defStr = strconv.Itoa(def)
	}
	s, err := Input(label, defStr, ValidatePort)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// ValidatePort accepts 1-65535.
func ValidatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a number")
	}
	if n < 1 || n > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

// ValidateProjectName accepts a single path element.
func ValidateProjectName(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return errors.New("project name is required")
	case s == "." || s == "..":
		return errors.New("project name must name a new directory")
	case strings.ContainsAny(s, `/\`):
		return errors.New("project name must not contain path separators")
	}
	return nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return generr.Wrap(generr.EUsage, "input aborted", err)
	}
	return generr.Wrap(generr.EIO, "read input", err)
}
