package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSession is returned when a session fails validation.
var ErrInvalidSession = errors.New("invalid session")

// MaxSets mirrors the backend's validator on Exercise.sets.
const MaxSets = 10

// Exercise is one entry of a workout plan as handed to the timer.
// Field names match the exercises JSON embedded in the session page.
type Exercise struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Sets     int    `json:"sets" yaml:"sets"`
	Reps     string `json:"reps" yaml:"reps"`
	RestTime int    `json:"rest_time" yaml:"rest_time"` // seconds
}

// Session is a started workout: the backend session ID plus its ordered exercises.
type Session struct {
	ID        int64      `json:"id" yaml:"id"`
	Exercises []Exercise `json:"exercises" yaml:"exercises"`
}

// Validate checks the invariants the timer relies on.
func (s Session) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidSession)
	}
	if len(s.Exercises) == 0 {
		return fmt.Errorf("%w: no exercises", ErrInvalidSession)
	}
	for i, e := range s.Exercises {
		if e.Sets < 1 || e.Sets > MaxSets {
			return fmt.Errorf("%w: exercise %d (%q): sets must be between 1 and %d, got %d",
				ErrInvalidSession, i, e.Name, MaxSets, e.Sets)
		}
		if e.RestTime < 0 {
			return fmt.Errorf("%w: exercise %d (%q): rest_time must not be negative",
				ErrInvalidSession, i, e.Name)
		}
	}
	return nil
}

// TotalSets returns the number of work phases the session will run.
func (s Session) TotalSets() int {
	n := 0
	for _, e := range s.Exercises {
		n += e.Sets
	}
	return n
}

// ParseSession decodes a session from JSON or YAML. YAML is a superset of JSON,
// but JSON input goes through encoding/json so numeric IDs keep their exact type.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing session json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing session yaml: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return ParseSession(data)
}
