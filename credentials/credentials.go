// Package credentials resolves provider secrets before a client is
// constructed. Resolution order is environment variable first, then the OS
// keyring; the core packages never read the environment themselves.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "quill"

// ErrNotFound indicates that a secret is neither exported nor stored in the
// keyring.
var ErrNotFound = errors.New("secret not found")

// Resolve returns the secret for name, e.g. "OPENAI_API_KEY".
func Resolve(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	secret, err := keyring.Get(serviceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s (export it or run `quill auth set %s`)", ErrNotFound, name, name)
		}
		return "", fmt.Errorf("read secret %q: %w", name, err)
	}
	return secret, nil
}

// ResolveOptional is Resolve for secrets that may legitimately be absent,
// such as a custom base URL.
func ResolveOptional(name string) string {
	v, err := Resolve(name)
	if err != nil {
		return ""
	}
	return v
}

// Store writes a secret to the OS keyring.
func Store(name, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("secret %q cannot be empty", name)
	}
	if err := keyring.Set(serviceName, name, trimmed); err != nil {
		return fmt.Errorf("store secret %q: %w", name, err)
	}
	return nil
}

// Delete removes a secret from the OS keyring.
func Delete(name string) error {
	if err := keyring.Delete(serviceName, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete secret %q: %w", name, err)
	}
	return nil
}
