package model

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionParagraph      QuestionType = "paragraph"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionDropdown       QuestionType = "dropdown"
	QuestionFileUpload     QuestionType = "file-upload"
	QuestionLinearScale    QuestionType = "linear-scale"
	QuestionStarRating     QuestionType = "star-rating"
	QuestionMatrixGrid     QuestionType = "matrix-grid"
	QuestionYesNo          QuestionType = "yes-no"
	QuestionDate           QuestionType = "date"
	QuestionTime           QuestionType = "time"
	QuestionSectionBreak   QuestionType = "section-break"
)

// ConditionalRule makes a question visible only when another question's
// answer matches the predicate.
type ConditionalRule struct {
	QuestionID uint   `json:"question_id"`
	Operator   string `json:"operator"` // equals | not-equals | contains
	Value      string `json:"value"`
}

type Question struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	SectionID   uint         `json:"section_id" gorm:"not null;index"`
	Type        QuestionType `json:"type" gorm:"not null"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Position    int          `json:"position" gorm:"not null"`

	// Choice types.
	Options        []string `json:"options,omitempty" gorm:"serializer:json"`
	AllowOther     bool     `json:"allow_other"`
	ShuffleChoices bool     `json:"shuffle_choices"`

	// Linear scale / star rating.
	ScaleMin      int    `json:"scale_min,omitempty"`
	ScaleMax      int    `json:"scale_max,omitempty"`
	ScaleMinLabel string `json:"scale_min_label,omitempty"`
	ScaleMaxLabel string `json:"scale_max_label,omitempty"`

	// Matrix grid.
	Rows    []string `json:"rows,omitempty" gorm:"serializer:json"`
	Columns []string `json:"columns,omitempty" gorm:"serializer:json"`

	// File upload. MaxFileSizeMB bounds FileRef.Size at MaxFileSizeMB*1e6 bytes.
	AcceptedFileTypes []string `json:"accepted_file_types,omitempty" gorm:"serializer:json"`
	MaxFileSizeMB     int      `json:"max_file_size_mb,omitempty"`

	Conditional *ConditionalRule `json:"conditional,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Questions are soft-deleted so answers collected before an edit keep
	// resolvable question ids.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsChoice reports whether the question carries an options list.
func (q *Question) IsChoice() bool {
	switch q.Type {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown:
		return true
	}
	return false
}

// Answerable reports whether the question expects an answer at all.
func (q *Question) Answerable() bool {
	return q.Type != QuestionSectionBreak
}
