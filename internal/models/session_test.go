package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sessionJSON = `{
  "id": 42,
  "exercises": [
    {"id": 7, "name": "Push-ups", "sets": 2, "reps": "10-12", "rest_time": 10},
    {"id": 8, "name": "Plank", "sets": 1, "reps": "30 seconds", "rest_time": 10}
  ]
}`

const sessionYAML = `
id: 42
exercises:
  - id: 7
    name: Push-ups
    sets: 2
    reps: "10-12"
    rest_time: 10
  - id: 8
    name: Plank
    sets: 1
    reps: 30 seconds
    rest_time: 10
`

// TestParseSessionFormats verifies that JSON and YAML session files decode to the same session.
func TestParseSessionFormats(t *testing.T) {
	for name, input := range map[string]string{"json": sessionJSON, "yaml": sessionYAML} {
		t.Run(name, func(t *testing.T) {
			s, err := ParseSession([]byte(input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.ID != 42 {
				t.Errorf("id = %d, want 42", s.ID)
			}
			if len(s.Exercises) != 2 {
				t.Fatalf("got %d exercises, want 2", len(s.Exercises))
			}
			e := s.Exercises[1]
			if e.ID != 8 || e.Name != "Plank" || e.Sets != 1 || e.Reps != "30 seconds" || e.RestTime != 10 {
				t.Errorf("exercise[1] = %+v", e)
			}
			if got := s.TotalSets(); got != 3 {
				t.Errorf("TotalSets() = %d, want 3", got)
			}
		})
	}
}

// TestSessionValidate checks each rejection rule against ErrInvalidSession.
func TestSessionValidate(t *testing.T) {
	tests := []struct {
		name    string
		session Session
	}{
		{"zero id", Session{Exercises: []Exercise{{ID: 1, Sets: 1}}}},
		{"no exercises", Session{ID: 1}},
		{"zero sets", Session{ID: 1, Exercises: []Exercise{{ID: 1, Sets: 0}}}},
		{"too many sets", Session{ID: 1, Exercises: []Exercise{{ID: 1, Sets: MaxSets + 1}}}},
		{"negative rest", Session{ID: 1, Exercises: []Exercise{{ID: 1, Sets: 1, RestTime: -5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Validate() = %v, want ErrInvalidSession", err)
			}
		})
	}

	ok := Session{ID: 1, Exercises: []Exercise{{ID: 1, Sets: 3, RestTime: 0}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() on valid session = %v", err)
	}
}

// TestLoadSession reads a session from disk and rejects a missing file.
func TestLoadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(sessionYAML), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Exercises[0].Name != "Push-ups" {
		t.Errorf("name = %q, want Push-ups", s.Exercises[0].Name)
	}

	if _, err := LoadSession(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestStatusResponseOK verifies only the literal "success" status counts as stored.
func TestStatusResponseOK(t *testing.T) {
	if !(StatusResponse{Status: "success"}).OK() {
		t.Error("success should be OK")
	}
	if (StatusResponse{Status: "error", Message: "boom"}).OK() {
		t.Error("error should not be OK")
	}
}
