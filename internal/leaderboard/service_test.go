package leaderboard

import (
	"context"
	"testing"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"
)

type mockPublisher struct {
	entries []Entry
}

func (m *mockPublisher) Publish(e Entry) { m.entries = append(m.entries, e) }

func TestService_Validate(t *testing.T) {
	svc := NewService(nil, config.Default(), nil)
	valid := Submission{PlayerName: "  Ana  ", Score: 650, Moves: 4, Time: "00:05", Difficulty: "Easy", Efficiency: 100}

	e, err := svc.Validate(valid)
	if err != nil {
		t.Fatalf("Validate returned an unexpected error: %v", err)
	}
	if e.PlayerName != "Ana" || e.Difficulty != "easy" || e.ElapsedSecs != 5 {
		t.Errorf("Expected normalised entry, got %+v", e)
	}

	tests := []struct {
		name string
		mod  func(*Submission)
	}{
		{"name too short", func(s *Submission) { s.PlayerName = " A " }},
		{"name too long", func(s *Submission) { s.PlayerName = "abcdefghijklmnopqrstu" }},
		{"negative score", func(s *Submission) { s.Score = -1 }},
		{"negative moves", func(s *Submission) { s.Moves = -1 }},
		{"efficiency above 100", func(s *Submission) { s.Efficiency = 101 }},
		{"unknown difficulty", func(s *Submission) { s.Difficulty = "insane" }},
		{"bad time", func(s *Submission) { s.Time = "5s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mod(&sub)
			_, err := svc.Validate(sub)
			if !IsValidation(err) {
				t.Errorf("Expected a ValidationError, got %v", err)
			}
		})
	}
}

func TestService_NameLengthCountsCharacters(t *testing.T) {
	svc := NewService(nil, config.Default(), nil)
	sub := Submission{PlayerName: "🐶🐱", Time: "00:01", Difficulty: "easy"}
	if _, err := svc.Validate(sub); err != nil {
		t.Errorf("Expected two emoji to be a valid name, got %v", err)
	}
}

func TestService_SubmitPublishes(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewService(openTestStore(t), config.Default(), pub)
	svc.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	result := scoring.Result{Score: 650, Moves: 4, ElapsedTime: "00:05", Difficulty: "easy", EfficiencyPercent: 100}
	e, err := svc.Submit(context.Background(), SubmissionFromResult("Ana", result))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(pub.entries) != 1 || pub.entries[0].ID != e.ID {
		t.Errorf("Expected the stored entry to be published, got %+v", pub.entries)
	}

	entries, err := svc.Global(context.Background(), "easy", 10)
	if err != nil {
		t.Fatalf("Global failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 650 || !entries[0].Date.Equal(svc.now()) {
		t.Errorf("Expected the submission in the ranking, got %+v", entries)
	}

	if _, err := svc.Global(context.Background(), "insane", 10); !IsValidation(err) {
		t.Errorf("Expected a ValidationError for an unknown difficulty, got %v", err)
	}
	if _, err := svc.Player(context.Background(), "  "); !IsValidation(err) {
		t.Errorf("Expected a ValidationError for an empty player, got %v", err)
	}
}
