// Package secrets resolves credentials given inline or through a file.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when a required secret has neither a file nor a value.
var ErrNotConfigured = errors.New("not configured")

// Source describes where a secret comes from. File takes precedence over Value.
type Source struct {
	// Name is used in error messages.
	Name  string
	Value string
	File  string
}

func (s Source) name() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "secret"
}

// Load resolves a required secret. The result is trimmed.
func Load(src Source) (string, error) {
	secret, err := resolve(src)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("%s: %w", src.name(), ErrNotConfigured)
	}
	return secret, nil
}

// Optional resolves a secret that may be left unset, in which case it
// returns an empty string. A configured but unreadable or empty file is
// still an error.
func Optional(src Source) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return Load(src)
}

func resolve(src Source) (string, error) {
	file := strings.TrimSpace(src.File)
	if file == "" {
		return strings.TrimSpace(src.Value), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", src.name(), file, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", src.name(), file)
	}
	return secret, nil
}
