// Package storage persists a fingerprint of the last observed
// availability set per (provider, requested-server-set) key, so repeated
// polls can detect "no change" without keeping history.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// Store writes one file per key under its root directory. The filename
// derives from the provider name and a digest of the requested set; the
// content is a hex digest of the available subset. Two independent
// hashes, so a changed request naturally lands on a new file instead of
// colliding with the record of a different query.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates the storage root if absent. A path that exists but is not
// a directory is a configuration error.
func New(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inspecting storage directory: %w", err)
	}
	if !info.IsDir() {
		return nil, &types.ConfigError{
			Name:  "storage directory",
			Value: dir,
			Err:   errors.New("path is not a directory"),
		}
	}
	return &Store{dir: dir, log: log}, nil
}

// hashJSON returns the hex SHA-256 of the canonical JSON serialization
// of v. JSON is good enough as a canonical form here: only strings and
// string slices are ever hashed.
func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// keyPath builds the record path for a provider/requested-set combo. The
// requested set is sorted before hashing so that the same servers listed
// in a different order converge onto the same record.
func (s *Store) keyPath(providerName string, requestedServers []string) (string, error) {
	sorted := append([]string(nil), requestedServers...)
	sort.Strings(sorted)

	hash, err := hashJSON(sorted)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.sha256", providerName, hash)), nil
}

// getHash reads the stored digest for a key. A missing record is the
// normal first-observation case, reported via found=false; any other
// read failure is an error.
func (s *Store) getHash(providerName string, requestedServers []string) (hash string, found bool, err error) {
	path, err := s.keyPath(providerName, requestedServers)
	if err != nil {
		return "", false, err
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading fingerprint %s: %w", path, err)
	}

	stored := string(bytes.TrimSpace(content))
	s.log.Debug("fingerprint read", "path", path, "hash", stored)
	return stored, true, nil
}

// IsEqual reports whether the result's available set matches the stored
// fingerprint. A key with no record yet always compares unequal.
func (s *Store) IsEqual(providerName string, requestedServers []string, result *types.CheckResult) (bool, error) {
	stored, found, err := s.getHash(providerName, requestedServers)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	current, err := hashJSON(result.AvailableServers)
	if err != nil {
		return false, err
	}
	return current == stored, nil
}

// PutHash overwrites the stored fingerprint with the digest of the
// result's available set.
func (s *Store) PutHash(providerName string, requestedServers []string, result *types.CheckResult) error {
	path, err := s.keyPath(providerName, requestedServers)
	if err != nil {
		return err
	}
	hash, err := hashJSON(result.AvailableServers)
	if err != nil {
		return err
	}

	s.log.Debug("fingerprint write", "path", path, "hash", hash)
	if err := os.WriteFile(path, []byte(hash), 0o644); err != nil {
		return fmt.Errorf("writing fingerprint %s: %w", path, err)
	}
	return nil
}
