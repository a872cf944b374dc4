//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var errNoSecret = errors.New("secret not set")

// Without a Keychain, secrets live in a 0600 file next to the data dir,
// keyed by "service/account".
func secretsPath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

func readSecrets(path string) (map[string]string, error) {
	secrets := make(map[string]string)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return secrets, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return secrets, nil
}

func keychainGet(service, account string) ([]byte, error) {
	secrets, err := readSecrets(secretsPath())
	if err != nil {
		return nil, err
	}
	v, ok := secrets[service+"/"+account]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", service, account, errNoSecret)
	}
	return []byte(v), nil
}

func keychainSet(service, account, value string) error {
	path := secretsPath()
	secrets, err := readSecrets(path)
	if err != nil {
		return err
	}
	secrets[service+"/"+account] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
