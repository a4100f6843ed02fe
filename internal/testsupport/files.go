package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories. An empty
// content yields a zero-sized file.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteRules writes a rule file relative to rulesDir.
func WriteRules(t testing.TB, rulesDir, name, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(rulesDir, name), content)
}
