package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/difficulties.yaml
var defaultTableYAML []byte

// tableFile is the on-disk shape of the difficulty table.
type tableFile struct {
	Alphabet     []string     `yaml:"alphabet"`
	Difficulties []Difficulty `yaml:"difficulties"`
}

// DefaultAlphabet is the symbol set used when a table does not define one.
var DefaultAlphabet = []string{"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯", "🦁", "🐮"}

// Default returns the built-in difficulty table.
func Default() Table {
	t, err := Parse(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded difficulty table is invalid: %v", err))
	}
	return t
}

// Parse decodes and validates a YAML difficulty table.
func Parse(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("failed to parse difficulty table: %w", err)
	}
	if len(f.Alphabet) == 0 {
		f.Alphabet = DefaultAlphabet
	}
	return NewTable(f.Alphabet, f.Difficulties)
}

// Load loads the difficulty table.
// Search order: customPath -> ~/.config/go-pairs/difficulties.yaml -> embedded default.
// A custom path that cannot be read or is invalid is an error; a broken user
// file is skipped.
func Load(customPath string) (Table, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Table{}, fmt.Errorf("failed to read difficulty table %s: %w", customPath, err)
		}
		t, err := Parse(data)
		if err != nil {
			return Table{}, fmt.Errorf("%s: %w", customPath, err)
		}
		return t, nil
	}

	if userPath := UserPath("difficulties.yaml"); userPath != "" {
		if data, err := os.ReadFile(userPath); err == nil {
			if t, err := Parse(data); err == nil {
				return t, nil
			}
		}
	}

	return Default(), nil
}

// UserPath returns the path of a file in the per-user config directory, or
// empty if the home directory is unavailable.
func UserPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "go-pairs", filename)
}
