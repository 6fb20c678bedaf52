// Package config holds the difficulty table used to build boards and score
// games, loaded from YAML with an embedded default.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDifficulty is wrapped by every ConfigurationError.
var ErrInvalidDifficulty = errors.New("invalid difficulty configuration")

// ErrUnknownDifficulty is returned by Lookup for names not in the table.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ConfigurationError reports a malformed difficulty. It prevents a session
// from starting.
type ConfigurationError struct {
	Difficulty string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("difficulty %q: %s", e.Difficulty, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidDifficulty }

// Difficulty is one row of the difficulty table.
type Difficulty struct {
	Name         string  `yaml:"name"`
	Pairs        int     `yaml:"pairs"`
	Columns      int     `yaml:"columns"`
	Multiplier   float64 `yaml:"multiplier"`
	BaseScore    int     `yaml:"base_score"`
	TimeBonus    int     `yaml:"time_bonus"`
	PerfectBonus int     `yaml:"perfect_bonus"`
}

// Cards returns the number of cards on a board of this difficulty.
func (d Difficulty) Cards() int {
	return d.Pairs * 2
}

// Validate checks the difficulty against an alphabet of alphabetSize symbols.
func (d Difficulty) Validate(alphabetSize int) error {
	switch {
	case d.Name == "":
		return &ConfigurationError{Difficulty: d.Name, Reason: "name is empty"}
	case d.Pairs < 1:
		return &ConfigurationError{Difficulty: d.Name, Reason: fmt.Sprintf("pair count %d is below 1", d.Pairs)}
	case d.Pairs > alphabetSize:
		return &ConfigurationError{
			Difficulty: d.Name,
			Reason:     fmt.Sprintf("pair count %d exceeds alphabet of %d symbols", d.Pairs, alphabetSize),
		}
	case d.Multiplier <= 0:
		return &ConfigurationError{Difficulty: d.Name, Reason: "multiplier must be positive"}
	case d.BaseScore < 0 || d.TimeBonus < 0 || d.PerfectBonus < 0:
		return &ConfigurationError{Difficulty: d.Name, Reason: "scores and bonuses must not be negative"}
	}
	return nil
}

// Table is the immutable set of difficulties plus the symbol alphabet.
type Table struct {
	alphabet     []string
	difficulties []Difficulty
}

// NewTable validates and builds a table. The inputs are copied.
func NewTable(alphabet []string, difficulties []Difficulty) (Table, error) {
	t := Table{
		alphabet:     append([]string(nil), alphabet...),
		difficulties: append([]Difficulty(nil), difficulties...),
	}
	if len(t.difficulties) == 0 {
		return Table{}, &ConfigurationError{Reason: "table has no difficulties"}
	}
	seen := make(map[string]bool, len(t.difficulties))
	for i := range t.difficulties {
		d := &t.difficulties[i]
		d.Name = strings.ToLower(strings.TrimSpace(d.Name))
		if seen[d.Name] {
			return Table{}, &ConfigurationError{Difficulty: d.Name, Reason: "defined twice"}
		}
		seen[d.Name] = true
		if err := d.Validate(len(t.alphabet)); err != nil {
			return Table{}, err
		}
	}
	return t, nil
}

// Alphabet returns a copy of the symbol alphabet.
func (t Table) Alphabet() []string {
	return append([]string(nil), t.alphabet...)
}

// Difficulties returns a copy of every difficulty, in table order.
func (t Table) Difficulties() []Difficulty {
	return append([]Difficulty(nil), t.difficulties...)
}

// Names returns the difficulty names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t.difficulties))
	for i, d := range t.difficulties {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a difficulty by name, case-insensitively.
func (t Table) Lookup(name string) (Difficulty, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range t.difficulties {
		if d.Name == name {
			return d, nil
		}
	}
	return Difficulty{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDifficulty, name, strings.Join(t.Names(), ", "))
}

// Has reports whether name is a known difficulty.
func (t Table) Has(name string) bool {
	_, err := t.Lookup(name)
	return err == nil
}
