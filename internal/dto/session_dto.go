package dto

import (
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"github.com/lshigami/Quokkas/internal/session"
)

// SessionStartDTO identifies the respondent opening a session. The IP is
// taken from the connection, not the body. Identity is supplied by the
// auth collaborator in production; anonymous respondents send nothing.
type SessionStartDTO struct {
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	UserRole      string `json:"user_role"`
	UserCommittee string `json:"user_committee"`
	DeviceID      string `json:"device_id"`
}

// AnswerSubmitDTO sets one question's answer. A zero value clears it.
type AnswerSubmitDTO struct {
	Value model.AnswerValue `json:"value" binding:"required"`
}

// SessionStateDTO is the controller's view of a session, returned after
// every navigation action. ResponseID and Nonce are the completion receipt:
// they are filled only once the submission is persisted, and the nonce is
// the credential for editing it afterwards.
type SessionStateDTO struct {
	SessionID        string            `json:"session_id"`
	PollID           uint              `json:"poll_id"`
	State            session.State     `json:"state"`
	Progress         session.Progress  `json:"progress"`
	MissingQuestions []uint            `json:"missing_questions,omitempty"`
	Rejection        *policy.Rejection `json:"rejection,omitempty"`
	HasUnsaved       bool              `json:"has_unsaved"`
	TabSwitches      int               `json:"tab_switches"`
	ForcedSubmit     bool              `json:"forced_submit,omitempty"`
	ResponseID       string            `json:"response_id,omitempty"`
	Nonce            string            `json:"nonce,omitempty"`
}

// ResponseEditDTO amends an already-persisted response on polls that allow
// editing after submit. The nonce from the completion receipt proves the
// caller made the original submission. A zero answer value clears it.
type ResponseEditDTO struct {
	Nonce   string                     `json:"nonce" binding:"required"`
	Answers map[uint]model.AnswerValue `json:"answers" binding:"required"`
}

// SectionViewDTO is the section as presented to this session, with any
// per-session shuffling applied.
type SectionViewDTO struct {
	SectionIndex int           `json:"section_index"`
	Section      model.Section `json:"section"`
}
