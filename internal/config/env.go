// Package config provides access to the environment variables that
// configure providers and notifiers. Every credential and filter is read
// from a named variable at construction time; absence of a required
// variable is a configuration error, not a runtime error.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// Env returns the trimmed value of a required environment variable.
// Unset or blank values yield a ConfigError naming the variable.
func Env(name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", &types.ConfigError{Name: name, Err: errors.New("variable not set")}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", &types.ConfigError{Name: name, Err: errors.New("variable is empty")}
	}
	return value, nil
}

// EnvOption returns the trimmed value of an optional environment
// variable, or "" when unset.
func EnvOption(name string) string {
	value, _ := os.LookupEnv(name)
	return strings.TrimSpace(value)
}

// EnvDefault returns the trimmed value of an environment variable,
// falling back to def when unset or blank.
func EnvDefault(name, def string) string {
	if value := EnvOption(name); value != "" {
		return value
	}
	return def
}

// SplitCSV splits a comma-separated value into trimmed tokens. An empty
// input yields nil (meaning "no filter"); an empty token anywhere in a
// non-empty input is a configuration error, since it usually indicates a
// typo like "fr-par-1,,fr-par-2".
func SplitCSV(name, csv string) ([]string, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}
	tokens := strings.Split(csv, ",")
	for i, token := range tokens {
		tokens[i] = strings.TrimSpace(token)
		if tokens[i] == "" {
			return nil, &types.ConfigError{
				Name:  name,
				Value: csv,
				Err:   errors.New("empty token in comma-separated list"),
			}
		}
	}
	return tokens, nil
}

// EnvCSV reads an optional environment variable and tokenizes it.
func EnvCSV(name string) ([]string, error) {
	return SplitCSV(name, EnvOption(name))
}
