package mission

import "errors"

var (
	ErrUnknownZone      = errors.New("unknown zone")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrNoActiveZone     = errors.New("no active zone")
	ErrInvalidOption    = errors.New("invalid option")
	ErrIncomplete       = errors.New("mission not complete")
	ErrUnknownSession   = errors.New("unknown mission session")
)

type Mission struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Badge string `json:"badge" yaml:"badge"`
	Zones []Zone `json:"zones" yaml:"zones"`
}

type Zone struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	SpaceName   string   `json:"spaceName" yaml:"space_name"`
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	AnswerIndex int      `json:"-" yaml:"answer_index"`
	FunFact     string   `json:"-" yaml:"fun_fact"`
	WrongHint   string   `json:"-" yaml:"wrong_hint"`
}

type FeedbackKind string

const (
	FeedbackCorrect FeedbackKind = "correct"
	FeedbackWrong   FeedbackKind = "wrong"
	FeedbackInfo    FeedbackKind = "info"
)

type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
}

type Progress struct {
	SessionID     string    `json:"sessionId"`
	MissionID     string    `json:"missionId"`
	Title         string    `json:"title"`
	ActiveZoneID  string    `json:"activeZoneId,omitempty"`
	Completed     []string  `json:"completed"`
	Total         int       `json:"total"`
	AllDone       bool      `json:"allDone"`
	LastFeedback  *Feedback `json:"lastFeedback,omitempty"`
	BadgeUnlocked bool      `json:"badgeUnlocked"`
}
