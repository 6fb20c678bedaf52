package scoring

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ScoreStorage defines the interface for loading and saving history entries.
// This allows for mocking the storage layer during tests.
type ScoreStorage interface {
	// LoadAll loads all history entries from the persistence layer.
	LoadAll() ([]HistoryEntry, error)
	// SaveAll saves a slice of history entries to the persistence layer, overwriting existing data.
	SaveAll(entries []HistoryEntry) error
}

// JSONFileStorage is an implementation of ScoreStorage that uses a file of
// newline-delimited JSON objects.
type JSONFileStorage struct {
	path string
}

// NewJSONFileStorage creates a new instance of JSONFileStorage,
// automatically determining the path for the history file.
func NewJSONFileStorage() (*JSONFileStorage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %w", err)
	}
	return NewJSONFileStorageAt(filepath.Join(homeDir, ".config", "go-pairs", "history.json")), nil
}

// NewJSONFileStorageAt creates a JSONFileStorage for an explicit path.
func NewJSONFileStorageAt(path string) *JSONFileStorage {
	return &JSONFileStorage{path: path}
}

// Path returns the history file location.
func (jfs *JSONFileStorage) Path() string {
	return jfs.path
}

// LoadAll reads and decodes all history entries from the JSON file.
func (jfs *JSONFileStorage) LoadAll() ([]HistoryEntry, error) {
	file, err := os.Open(jfs.path)
	// If the file doesn't exist, it's not an error; return an empty slice.
	if os.IsNotExist(err) {
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening history file for reading: %w", err)
	}
	defer file.Close()

	entries := make([]HistoryEntry, 0)
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry HistoryEntry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error decoding JSON entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// SaveAll encodes and writes all history entries to the JSON file.
func (jfs *JSONFileStorage) SaveAll(entries []HistoryEntry) error {
	if err := jfs.ensureDir(); err != nil {
		return err
	}

	file, err := os.OpenFile(jfs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error opening history file for writing: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("error encoding JSON entry: %w", err)
		}
	}

	return writer.Flush()
}

// PlayerName returns the remembered player name, or "" if none was saved.
func (jfs *JSONFileStorage) PlayerName() string {
	data, err := os.ReadFile(jfs.playerPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetPlayerName remembers the player name next to the history file.
func (jfs *JSONFileStorage) SetPlayerName(name string) error {
	if err := jfs.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(jfs.playerPath(), []byte(strings.TrimSpace(name)+"\n"), 0644); err != nil {
		return fmt.Errorf("error saving player name: %w", err)
	}
	return nil
}

func (jfs *JSONFileStorage) playerPath() string {
	return filepath.Join(filepath.Dir(jfs.path), "player")
}

func (jfs *JSONFileStorage) ensureDir() error {
	dir := filepath.Dir(jfs.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating history directory: %w", err)
		}
	}
	return nil
}

// MemoryStorage keeps the history in memory only. It is used for sessions
// that have no home directory of their own, such as SSH players.
type MemoryStorage struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func (m *MemoryStorage) LoadAll() ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryStorage) SaveAll(entries []HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]HistoryEntry, len(entries))
	copy(m.entries, entries)
	return nil
}
