package validation

import (
	"fmt"

	"github.com/lshigami/Quokkas/internal/model"
)

// DefinitionError is an authoring-time defect in a question or poll
// structure. A poll with any definition error cannot be published.
type DefinitionError struct {
	QuestionID uint   `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e DefinitionError) Error() string {
	return fmt.Sprintf("question %d: %s: %s", e.QuestionID, e.Field, e.Message)
}

// CheckDefinition checks the structural invariants of a single question.
func CheckDefinition(q model.Question) []DefinitionError {
	var errs []DefinitionError
	add := func(field, msg string) {
		errs = append(errs, DefinitionError{QuestionID: q.ID, Field: field, Message: msg})
	}

	if q.Title == "" {
		add("title", "title is required")
	}

	switch q.Type {
	case model.QuestionMultipleChoice, model.QuestionCheckbox, model.QuestionDropdown:
		if len(q.Options) == 0 {
			add("options", "choice questions need at least one option")
		}
		for i, opt := range q.Options {
			if opt == "" {
				add("options", fmt.Sprintf("option %d is empty", i+1))
			}
		}
	case model.QuestionLinearScale, model.QuestionStarRating:
		if q.ScaleMin >= q.ScaleMax {
			add("scale", fmt.Sprintf("scale min %d must be below max %d", q.ScaleMin, q.ScaleMax))
		}
	case model.QuestionMatrixGrid:
		if len(q.Rows) == 0 {
			add("rows", "matrix grid needs at least one row")
		}
		if len(q.Columns) == 0 {
			add("columns", "matrix grid needs at least one column")
		}
	case model.QuestionFileUpload:
		if q.MaxFileSizeMB <= 0 {
			add("max_file_size_mb", "max file size must be positive")
		}
		if len(q.AcceptedFileTypes) == 0 {
			add("accepted_file_types", "at least one accepted file type is required")
		}
	case model.QuestionShortAnswer, model.QuestionParagraph, model.QuestionYesNo,
		model.QuestionDate, model.QuestionTime, model.QuestionSectionBreak:
		// No type-specific structure.
	default:
		add("type", fmt.Sprintf("unknown question type %q", q.Type))
	}

	if q.Conditional != nil {
		if q.Conditional.QuestionID == 0 {
			add("conditional", "conditional rule must reference a question")
		}
		switch q.Conditional.Operator {
		case "equals", "not-equals", "contains":
		default:
			add("conditional", fmt.Sprintf("unknown conditional operator %q", q.Conditional.Operator))
		}
	}

	return errs
}

// CheckPollDefinition checks every question plus the poll-level invariants:
// at least one section containing at least one answerable question, and
// conditional rules referencing questions that exist in the poll.
func CheckPollDefinition(p model.Poll) []DefinitionError {
	var errs []DefinitionError

	if p.Title == "" {
		errs = append(errs, DefinitionError{Field: "title", Message: "poll title is required"})
	}
	if len(p.Sections) == 0 {
		errs = append(errs, DefinitionError{Field: "sections", Message: "poll needs at least one section"})
		return errs
	}

	known := make(map[uint]bool)
	answerable := 0
	for _, sec := range p.Sections {
		for _, q := range sec.Questions {
			known[q.ID] = true
			if q.Answerable() {
				answerable++
			}
		}
	}
	if answerable == 0 {
		errs = append(errs, DefinitionError{Field: "questions", Message: "poll needs at least one question"})
	}

	for _, sec := range p.Sections {
		if len(sec.Questions) == 0 {
			errs = append(errs, DefinitionError{Field: "sections", Message: fmt.Sprintf("section %q has no questions", sec.Title)})
		}
		for _, q := range sec.Questions {
			errs = append(errs, CheckDefinition(q)...)
			if q.Conditional != nil && q.Conditional.QuestionID != 0 && !known[q.Conditional.QuestionID] {
				errs = append(errs, DefinitionError{
					QuestionID: q.ID,
					Field:      "conditional",
					Message:    fmt.Sprintf("conditional rule references unknown question %d", q.Conditional.QuestionID),
				})
			}
		}
	}

	return errs
}
