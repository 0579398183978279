// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tvkeep/tvkeep/internal/shared"
)

// TempDatabaseConfig returns a Config pointing at a database file inside a
// test-scoped temporary directory. A file-backed database is required because
// the store opens a fresh connection per operation; in-memory databases would
// lose their contents between operations.
func TempDatabaseConfig(t *testing.T) *shared.Config {
	t.Helper()
	cfg := shared.DefaultConfig()
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "tvkeep-test.db")
	// Point the resource dir somewhere empty so a seed file in the working
	// directory cannot leak into tests.
	cfg.Resources.Dir = dir
	cfg.Resources.SeedFile = "seed-not-present.json"
	return cfg
}

// WriteSeedFile writes seed document content into the config's resource
// directory and points the config at it.
func WriteSeedFile(t *testing.T, cfg *shared.Config, content string) string {
	t.Helper()
	cfg.Resources.SeedFile = "default-channels.json"
	path := filepath.Join(cfg.Resources.Dir, cfg.Resources.SeedFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

// MustWriteFile writes content to a file under dir and returns its path.
func MustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// MustReadFile reads a file or fails the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// AssertFileExists fails the test when path does not exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
