package dto

import (
	"github.com/lshigami/Quokkas/internal/aggregate"
	"github.com/lshigami/Quokkas/internal/model"
)

// QuestionResultDTO carries the aggregate for one question. Exactly one of
// the aggregate fields is set, matching the question type.
type QuestionResultDTO struct {
	QuestionID uint               `json:"question_id"`
	Title      string             `json:"title"`
	Type       model.QuestionType `json:"type"`

	Choices []aggregate.OptionCount `json:"choices,omitempty"`
	Scale   *aggregate.ScaleStats   `json:"scale,omitempty"`
	YesNo   *aggregate.YesNoSplit   `json:"yes_no,omitempty"`
	Matrix  *aggregate.MatrixTable  `json:"matrix,omitempty"`
	// Texts is a bounded sample of raw text answers for manual review.
	Texts []string `json:"texts,omitempty"`
}

type PollResultsDTO struct {
	PollID    uint                `json:"poll_id"`
	Title     string              `json:"title"`
	Stats     aggregate.PollStats `json:"stats"`
	Questions []QuestionResultDTO `json:"questions"`
}
