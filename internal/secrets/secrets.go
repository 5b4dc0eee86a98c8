// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the Dimensions API key from a directory of
// plain-text files and the environment. Each file in the directory is one
// secret: the filename is the key name and the file contents (trimmed)
// are the value. A .env file in the working directory is loaded into the
// environment first.
//
// Supported key file: dimensions-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable carrying the Dimensions API key.
const APIKeyEnv = "DIMENSIONS_API_KEY"

// APIKeyFile is the secret file name holding the Dimensions API key.
const APIKeyFile = "dimensions-api-key"

// LoadDotenv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error; existing environment
// variables are never overwritten.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ResolveAPIKey returns the Dimensions API key, trying in order: the
// explicit value, the DIMENSIONS_API_KEY environment variable (after
// .env loading), and the dimensions-api-key file in secretsDir. An empty
// string means no key was found anywhere.
func ResolveAPIKey(explicit, secretsDir string) string {
	if explicit != "" {
		return explicit
	}
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		return v
	}
	loaded, err := Load(secretsDir)
	if err != nil {
		return ""
	}
	return loaded[APIKeyFile]
}
