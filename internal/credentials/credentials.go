// Package credentials resolves the LLM API key for a provider.
//
// Sources are tried in order: explicit flag value, configured value (config
// file or TABULA_API_KEY), the provider's environment variable, then .env
// files in the working directory, the executable's directory and its parent.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/llm"
)

// MinKeyLength is the shortest key accepted. Shorter values are placeholders.
const MinKeyLength = 21

// ErrNotFound is returned when no usable key exists in any source.
var ErrNotFound = errors.New("no API key found")

// Source names where a key came from.
type Source string

const (
	SourceFlag   Source = "flag"
	SourceConfig Source = "config"
	SourceEnv    Source = "env"
	SourceDotEnv Source = "dotenv"
)

// Credential is a resolved API key.
type Credential struct {
	Key    string
	Source Source
	// Path is the .env file the key was read from, for SourceDotEnv.
	Path string
}

// Resolver looks up credentials. The zero value uses the process
// environment and the default .env locations.
type Resolver struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Dirs overrides the directories searched for .env files.
	Dirs []string
}

// Resolve returns the first usable key for provider.
func (r Resolver) Resolve(provider, flagValue, configured string) (Credential, error) {
	log := logger.Component("credentials")

	if usable(flagValue) {
		return Credential{Key: strings.TrimSpace(flagValue), Source: SourceFlag}, nil
	}
	if usable(configured) {
		return Credential{Key: strings.TrimSpace(configured), Source: SourceConfig}, nil
	}

	envKey := llm.EnvKey(provider)
	if envKey == "" {
		return Credential{}, fmt.Errorf("%w: unknown provider %q", ErrNotFound, provider)
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(envKey); usable(v) {
		return Credential{Key: strings.TrimSpace(v), Source: SourceEnv}, nil
	}

	for _, dir := range r.dirs() {
		path := filepath.Join(dir, ".env")
		vars, err := godotenv.Read(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Debug("unreadable env file", "path", path, "error", err)
			}
			continue
		}
		if v := vars[envKey]; usable(v) {
			log.Debug("key loaded from env file", "path", path, "var", envKey)
			return Credential{Key: strings.TrimSpace(v), Source: SourceDotEnv, Path: path}, nil
		}
	}

	return Credential{}, fmt.Errorf("%w: set %s or pass --api-key", ErrNotFound, envKey)
}

// Resolve uses a zero Resolver.
func Resolve(provider, flagValue, configured string) (Credential, error) {
	return Resolver{}.Resolve(provider, flagValue, configured)
}

func (r Resolver) dirs() []string {
	if r.Dirs != nil {
		return r.Dirs
	}
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		dirs = append(dirs, dir, filepath.Dir(dir))
	}
	return dedup(dirs)
}

func dedup(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, d := range dirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func usable(key string) bool {
	return len(strings.TrimSpace(key)) >= MinKeyLength
}

// Mask hides all but the last four characters of a key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
