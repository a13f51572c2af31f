package mission

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one visitor's run through a mission:
// active zone -> answered -> completed, repeated until every zone is done.
type Session struct {
	id      string
	mission Mission

	mu            sync.Mutex
	activeZoneID  string
	completed     map[string]bool
	order         []string
	lastFeedback  *Feedback
	badgeUnlocked bool
}

func NewSession(m Mission) *Session {
	return &Session{
		id:        uuid.NewString(),
		mission:   m,
		completed: map[string]bool{},
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mission() Mission {
	return s.mission
}

// OpenZone makes zoneID the active question. A completed zone is not reopened.
func (s *Session) OpenZone(zoneID string) (Zone, error) {
	z, ok := s.mission.Zone(zoneID)
	if !ok {
		return Zone{}, ErrUnknownZone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed[zoneID] {
		s.lastFeedback = &Feedback{
			Kind:    FeedbackInfo,
			Title:   "Already completed!",
			Message: "Try another zone.",
		}
		return Zone{}, ErrAlreadyCompleted
	}

	s.activeZoneID = zoneID
	s.lastFeedback = nil
	return z, nil
}

func (s *Session) OpenZoneBySpace(spaceName string) (Zone, error) {
	z, ok := s.mission.ZoneBySpace(spaceName)
	if !ok {
		return Zone{}, ErrUnknownZone
	}
	return s.OpenZone(z.ID)
}

// Answer checks an option against the active zone. A correct answer completes
// the zone and closes it; a wrong one leaves it open with a hint.
func (s *Session) Answer(index int) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeZoneID == "" {
		return Feedback{}, ErrNoActiveZone
	}

	z, _ := s.mission.Zone(s.activeZoneID)
	if index < 0 || index >= len(z.Options) {
		return Feedback{}, ErrInvalidOption
	}

	var fb Feedback
	if index == z.AnswerIndex {
		fb = Feedback{Kind: FeedbackCorrect, Title: "Correct!", Message: z.FunFact}
		if !s.completed[z.ID] {
			s.completed[z.ID] = true
			s.order = append(s.order, z.ID)
		}
		s.activeZoneID = ""
	} else {
		fb = Feedback{Kind: FeedbackWrong, Title: "Try again", Message: z.WrongHint}
	}

	s.lastFeedback = &fb
	return fb, nil
}

// Finish unlocks the badge once every zone is completed.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.allDone() {
		return ErrIncomplete
	}

	s.badgeUnlocked = true
	return nil
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := make([]string, len(s.order))
	copy(completed, s.order)

	p := Progress{
		SessionID:     s.id,
		MissionID:     s.mission.ID,
		Title:         s.mission.Title,
		ActiveZoneID:  s.activeZoneID,
		Completed:     completed,
		Total:         len(s.mission.Zones),
		AllDone:       s.allDone(),
		BadgeUnlocked: s.badgeUnlocked,
	}
	if s.lastFeedback != nil {
		fb := *s.lastFeedback
		p.LastFeedback = &fb
	}
	return p
}

func (s *Session) allDone() bool {
	return len(s.mission.Zones) > 0 && len(s.completed) == len(s.mission.Zones)
}
