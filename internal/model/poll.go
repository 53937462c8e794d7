package model

import (
	"time"

	"gorm.io/gorm"
)

type PollType string

const (
	PollTypePoll       PollType = "poll"
	PollTypeEvaluation PollType = "evaluation"
	PollTypeSurvey     PollType = "survey"
	PollTypeAssessment PollType = "assessment"
	PollTypeForm       PollType = "form"
)

type PollStatus string

const (
	StatusDraft  PollStatus = "draft"
	StatusOpen   PollStatus = "open"
	StatusClosed PollStatus = "closed"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Poll struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	Type        PollType   `json:"type" gorm:"not null;default:'poll'"`
	Status      PollStatus `json:"status" gorm:"not null;default:'draft';index"`
	Visibility  Visibility `json:"visibility" gorm:"not null;default:'public'"`

	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedByRole string     `json:"created_by_role,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	OpenForever   bool       `json:"open_forever"`
	// ScheduledPublish, when set on a draft, is picked up by the publish
	// sweep and transitions the poll to open at that time.
	ScheduledPublish *time.Time `json:"scheduled_publish,omitempty"`

	UseSections bool      `json:"use_sections"`
	Sections    []Section `json:"sections,omitempty" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`

	// Response policy.
	TargetRole                string `json:"target_role,omitempty"`
	TargetCommittee           string `json:"target_committee,omitempty"`
	AllowEditAfterSubmit      bool   `json:"allow_edit_after_submit"`
	AllowMultipleSubmissions  bool   `json:"allow_multiple_submissions"`
	AnonymousResponses        bool   `json:"anonymous_responses"`
	ShowResultsToParticipants bool   `json:"show_results_to_participants"`
	RandomizeQuestions        bool   `json:"randomize_questions"`

	// Security policy.
	AccountOnlySubmissions bool `json:"account_only_submissions"`
	IPLock                 bool `json:"ip_lock"`
	DeviceLock             bool `json:"device_lock"`
	TimerMinutes           *int `json:"timer_minutes,omitempty"`
	BlockTabSwitching      bool `json:"block_tab_switching"`

	// Theme is presentation config. Stored and returned verbatim, never
	// interpreted by the engine.
	Theme map[string]string `json:"theme,omitempty" gorm:"serializer:json"`

	// Counters are incremented atomically by the repository, never assigned.
	Responses int64 `json:"responses"`
	Views     int64 `json:"views"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TimerDuration returns the countdown length for timed polls, zero otherwise.
func (p *Poll) TimerDuration() time.Duration {
	if p.TimerMinutes == nil || *p.TimerMinutes <= 0 {
		return 0
	}
	return time.Duration(*p.TimerMinutes) * time.Minute
}

// DeadlineExpired reports whether a non-open-forever poll is past its deadline.
func (p *Poll) DeadlineExpired(now time.Time) bool {
	if p.OpenForever || p.Deadline == nil {
		return false
	}
	return now.After(*p.Deadline)
}
