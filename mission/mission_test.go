package mission

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNorm(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  HALL   A ", "hall a"},
		{"Everyday\tScience", "everyday science"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := norm(tt.in); got != tt.want {
			t.Errorf("norm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSessionFlow(t *testing.T) {
	s := NewSession(Default())

	if _, err := s.Answer(0); !errors.Is(err, ErrNoActiveZone) {
		t.Fatalf("expected no active zone, got %v", err)
	}

	if _, err := s.OpenZone("zone-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fb, err := s.Answer(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Kind != FeedbackWrong || fb.Message != Default().Zones[1].WrongHint {
		t.Errorf("unexpected feedback %+v", fb)
	}
	if p := s.Progress(); p.ActiveZoneID != "zone-2" || len(p.Completed) != 0 {
		t.Errorf("wrong answer should keep the zone open: %+v", p)
	}

	fb, err = s.Answer(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Kind != FeedbackCorrect || fb.Message != Default().Zones[1].FunFact {
		t.Errorf("unexpected feedback %+v", fb)
	}
	if p := s.Progress(); p.ActiveZoneID != "" || len(p.Completed) != 1 {
		t.Errorf("correct answer should complete and close the zone: %+v", p)
	}

	if _, err := s.OpenZone("zone-2"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("expected already completed, got %v", err)
	}
	if p := s.Progress(); p.LastFeedback == nil || p.LastFeedback.Title != "Already completed!" {
		t.Errorf("expected already completed feedback, got %+v", p.LastFeedback)
	}

	if err := s.Finish(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected incomplete, got %v", err)
	}

	if _, err := s.OpenZoneBySpace("  everyday   science"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Answer(0)
	s.OpenZone("zone-3")
	if _, err := s.Answer(9); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected invalid option, got %v", err)
	}
	s.Answer(0)

	if err := s.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := s.Progress()
	if !p.AllDone || !p.BadgeUnlocked || p.Total != 3 {
		t.Errorf("unexpected final progress %+v", p)
	}
	if p.Completed[0] != "zone-2" || p.Completed[2] != "zone-3" {
		t.Errorf("completed zones should keep answer order: %v", p.Completed)
	}
}

func TestOpenUnknownZone(t *testing.T) {
	s := NewSession(Default())
	if _, err := s.OpenZone("zone-9"); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("expected unknown zone, got %v", err)
	}
	if _, err := s.OpenZoneBySpace("Lobby"); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("expected unknown zone, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Mission)
	}{
		{"missing id", func(m *Mission) { m.ID = "" }},
		{"no zones", func(m *Mission) { m.Zones = nil }},
		{"duplicate zone", func(m *Mission) { m.Zones[1].ID = m.Zones[0].ID }},
		{"answer out of range", func(m *Mission) { m.Zones[0].AnswerIndex = 4 }},
		{"no options", func(m *Mission) { m.Zones[2].Options = nil }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default mission should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Default()
			tt.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.yaml")
	content := `id: mission-test
title: Test Mission
zones:
  - id: a
    label: A
    space_name: Hall A
    question: Pick one
    options: [x, y]
    answer_index: 1
    fun_fact: fact
    wrong_hint: hint
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "mission-test" || m.Zones[0].AnswerIndex != 1 || m.Zones[0].SpaceName != "Hall A" {
		t.Errorf("unexpected mission %+v", m)
	}

	m, err = Load("")
	if err != nil || m.ID != Default().ID {
		t.Errorf("empty path should load the default mission")
	}
}

func TestStore(t *testing.T) {
	st := NewStore(Default(), nil)
	s := st.Create()

	got, err := st.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected stored session, got %v", err)
	}

	st.Delete(s.ID())
	if _, err := st.Get(s.ID()); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("expected unknown session, got %v", err)
	}
}
