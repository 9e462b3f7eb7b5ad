package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteClip creates a placeholder clip file with throwaway contents, creating
// parent directories as needed.
func WriteClip(t testing.TB, path string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("clip-bytes"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
