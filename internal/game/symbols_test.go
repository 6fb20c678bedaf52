package game

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSymbols(t *testing.T) {
	tmpDir := t.TempDir()

	// File 1: comments, blank lines and several symbols per line
	file1 := filepath.Join(tmpDir, "fruit.txt")
	content1 := "# fruit\n🍎 🍐\n\n🍊\n"
	if err := os.WriteFile(file1, []byte(content1), 0644); err != nil {
		t.Fatal(err)
	}

	// Directory with a second file repeating one symbol
	subDir := filepath.Join(tmpDir, "more")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	file2 := filepath.Join(subDir, "veg.txt")
	if err := os.WriteFile(file2, []byte("🥕\n🍎\n"), 0644); err != nil {
		t.Fatal(err)
	}

	symbols, err := LoadSymbols([]string{file1, subDir})
	if err != nil {
		t.Fatalf("LoadSymbols failed: %v", err)
	}

	expected := []string{"🍎", "🍐", "🍊", "🥕"}
	if len(symbols) != len(expected) {
		t.Fatalf("Expected %d symbols, got %d: %v", len(expected), len(symbols), symbols)
	}
	for i, s := range expected {
		if symbols[i] != s {
			t.Errorf("Symbol %d: expected %s, got %s", i, s, symbols[i])
		}
	}
}

func TestLoadSymbols_Errors(t *testing.T) {
	if _, err := LoadSymbols([]string{filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Error("Expected error for a missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSymbols([]string{empty}); err == nil {
		t.Error("Expected error for a file without symbols")
	}
}
