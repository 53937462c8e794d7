package validation

import (
	"strconv"
	"strings"

	"github.com/lshigami/Quokkas/internal/model"
)

// Visible evaluates a question's conditional rule against the current
// answers. Questions without a rule are always visible; a rule whose
// referenced question is unanswered hides the question.
func Visible(q model.Question, answers map[uint]model.AnswerValue) bool {
	if q.Conditional == nil {
		return true
	}
	ref, ok := answers[q.Conditional.QuestionID]
	if !ok || ref.IsZero() {
		return false
	}

	got := scalarForm(ref)
	want := q.Conditional.Value
	switch q.Conditional.Operator {
	case "equals":
		return got == want
	case "not-equals":
		return got != want
	case "contains":
		if ref.Kind == model.KindMultiChoice {
			for _, sel := range ref.MultiChoice {
				if sel == want {
					return true
				}
			}
			return false
		}
		return strings.Contains(got, want)
	}
	return false
}

// VisibleQuestions filters a section down to the questions currently shown
// to the respondent, given the answers collected so far.
func VisibleQuestions(sec model.Section, answers map[uint]model.AnswerValue) []model.Question {
	visible := make([]model.Question, 0, len(sec.Questions))
	for _, q := range sec.Questions {
		if Visible(q, answers) {
			visible = append(visible, q)
		}
	}
	return visible
}

// MissingRequired returns the ids of required, visible questions in the
// section that have no answer or an answer failing CheckAnswer. A required
// matrix grid counts as missing until every row has an assigned column.
func MissingRequired(sec model.Section, answers map[uint]model.AnswerValue) []uint {
	var missing []uint
	for _, q := range sec.Questions {
		if !q.Required || !q.Answerable() || !Visible(q, answers) {
			continue
		}
		v, ok := answers[q.ID]
		if !ok || v.IsZero() {
			missing = append(missing, q.ID)
			continue
		}
		if CheckAnswer(q, v) != nil {
			missing = append(missing, q.ID)
			continue
		}
		if q.Type == model.QuestionMatrixGrid && !matrixComplete(q, v) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// MissingRequiredAll runs MissingRequired across every section.
func MissingRequiredAll(sections []model.Section, answers map[uint]model.AnswerValue) []uint {
	var missing []uint
	for _, sec := range sections {
		missing = append(missing, MissingRequired(sec, answers)...)
	}
	return missing
}

// matrixComplete reports whether every declared row has an assigned column.
func matrixComplete(q model.Question, v model.AnswerValue) bool {
	for _, row := range q.Rows {
		if _, ok := v.Matrix[row]; !ok {
			return false
		}
	}
	return true
}

// scalarForm reduces an answer to the string form conditional rules
// compare against.
func scalarForm(v model.AnswerValue) string {
	switch v.Kind {
	case model.KindText:
		return v.Text
	case model.KindChoice:
		return v.Choice
	case model.KindMultiChoice:
		return strings.Join(v.MultiChoice, ",")
	case model.KindScale:
		return strconv.Itoa(v.Scale)
	case model.KindRating:
		return strconv.Itoa(v.Rating)
	case model.KindYesNo:
		return strconv.FormatBool(v.YesNo)
	case model.KindDate:
		return v.Date
	case model.KindTime:
		return v.Time
	case model.KindFile:
		if v.File != nil {
			return v.File.Name
		}
	}
	return ""
}
