package model

import (
	"time"

	"gorm.io/gorm"
)

// Response is one respondent's submission for a poll. Identity fields are
// nullable and stripped entirely before persistence when the poll collects
// anonymous responses. IP and DeviceID feed the security policy only and are
// never exposed through analytics.
type Response struct {
	ID     string `gorm:"primarykey;type:uuid" json:"id"`
	PollID uint   `json:"poll_id" gorm:"not null;index;uniqueIndex:idx_responses_poll_dedup"`

	UserID        *string `json:"user_id,omitempty" gorm:"index"`
	UserName      *string `json:"user_name,omitempty"`
	UserRole      *string `json:"user_role,omitempty"`
	UserCommittee *string `json:"user_committee,omitempty"`

	IP       string `json:"-"`
	DeviceID string `json:"-"`

	// DedupKey is the at-most-one-submission key. The composite unique index
	// with PollID is the atomic insert-if-absent primitive: a concurrent
	// duplicate loses the insert race instead of slipping past a check.
	DedupKey string `json:"-" gorm:"not null;uniqueIndex:idx_responses_poll_dedup"`
	// Nonce is the client-generated submission id; a retry carrying the same
	// nonce is treated as the same submission, not a duplicate.
	Nonce string `json:"nonce" gorm:"not null"`

	SubmittedAt        time.Time  `json:"submitted_at"`
	EditedAt           *time.Time `json:"edited_at,omitempty"`
	CompletionTimeSecs int        `json:"completion_time_secs"`
	FlaggedForReview   bool       `json:"flagged_for_review"`
	ForcedByTimer      bool       `json:"forced_by_timer"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:ResponseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Answer is a single question's answer within a response.
type Answer struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	ResponseID string      `json:"response_id" gorm:"type:uuid;not null;index"`
	QuestionID uint        `json:"question_id" gorm:"not null;index"`
	Value      AnswerValue `json:"value" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerMap indexes the response's answers by question id for validation
// and aggregation.
func (r *Response) AnswerMap() map[uint]AnswerValue {
	m := make(map[uint]AnswerValue, len(r.Answers))
	for _, a := range r.Answers {
		m[a.QuestionID] = a.Value
	}
	return m
}
