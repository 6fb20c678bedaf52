package game

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadSymbols reads a card alphabet from a list of paths (files or
// directories). Symbols are separated by whitespace; blank lines and lines
// starting with '#' are skipped, and repeated symbols are kept once.
func LoadSymbols(paths []string) ([]string, error) {
	var symbols []string
	seen := make(map[string]bool)

	add := func(found []string) {
		for _, s := range found {
			if !seen[s] {
				seen[s] = true
				symbols = append(symbols, s)
			}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read dir %s: %w", path, err)
			}
			for _, entry := range files {
				if !entry.IsDir() {
					found, err := loadSymbolFile(filepath.Join(path, entry.Name()))
					if err != nil {
						return nil, err
					}
					add(found)
				}
			}
		} else {
			found, err := loadSymbolFile(path)
			if err != nil {
				return nil, err
			}
			add(found)
		}
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols found in %s", strings.Join(paths, ", "))
	}
	return symbols, nil
}

func loadSymbolFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var symbols []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan file %s: %w", path, err)
	}

	return symbols, nil
}
