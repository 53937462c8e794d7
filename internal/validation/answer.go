package validation

import (
	"fmt"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/lshigami/Quokkas/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// AnswerError is a single answer failing its question's type rules.
// Recoverable inline; it never advances navigation state.
type AnswerError struct {
	QuestionID uint   `json:"question_id"`
	Message    string `json:"message"`
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("question %d: %s", e.QuestionID, e.Message)
}

func answerErr(q model.Question, format string, args ...any) *AnswerError {
	return &AnswerError{QuestionID: q.ID, Message: fmt.Sprintf(format, args...)}
}

// CheckAnswer type-checks a value against its question. Pure: identical
// inputs always yield the identical result. A nil return means the answer
// is acceptable.
func CheckAnswer(q model.Question, v model.AnswerValue) *AnswerError {
	if v.IsZero() {
		return answerErr(q, "no answer provided")
	}

	switch q.Type {
	case model.QuestionShortAnswer, model.QuestionParagraph:
		if v.Kind != model.KindText {
			return answerErr(q, "expected a text answer, got %s", v.Kind)
		}
		if strings.TrimSpace(v.Text) == "" {
			return answerErr(q, "text answer is empty")
		}

	case model.QuestionMultipleChoice, model.QuestionDropdown:
		if v.Kind != model.KindChoice {
			return answerErr(q, "expected a single choice, got %s", v.Kind)
		}
		if v.Choice == "" {
			return answerErr(q, "no option selected")
		}
		if !q.AllowOther && !slices.Contains(q.Options, v.Choice) {
			return answerErr(q, "%q is not one of the options", v.Choice)
		}

	case model.QuestionCheckbox:
		if v.Kind != model.KindMultiChoice {
			return answerErr(q, "expected a multi-choice answer, got %s", v.Kind)
		}
		if len(v.MultiChoice) == 0 {
			return answerErr(q, "no options selected")
		}
		if !q.AllowOther {
			for _, sel := range v.MultiChoice {
				if !slices.Contains(q.Options, sel) {
					return answerErr(q, "%q is not one of the options", sel)
				}
			}
		}

	case model.QuestionLinearScale:
		if v.Kind != model.KindScale {
			return answerErr(q, "expected a scale answer, got %s", v.Kind)
		}
		if v.Scale < q.ScaleMin || v.Scale > q.ScaleMax {
			return answerErr(q, "value %d outside scale [%d, %d]", v.Scale, q.ScaleMin, q.ScaleMax)
		}

	case model.QuestionStarRating:
		if v.Kind != model.KindRating {
			return answerErr(q, "expected a rating answer, got %s", v.Kind)
		}
		if v.Rating < q.ScaleMin || v.Rating > q.ScaleMax {
			return answerErr(q, "rating %d outside range [%d, %d]", v.Rating, q.ScaleMin, q.ScaleMax)
		}

	case model.QuestionYesNo:
		if v.Kind != model.KindYesNo {
			return answerErr(q, "expected a yes/no answer, got %s", v.Kind)
		}

	case model.QuestionDate:
		if v.Kind != model.KindDate {
			return answerErr(q, "expected a date answer, got %s", v.Kind)
		}
		if _, err := time.Parse(dateLayout, v.Date); err != nil {
			return answerErr(q, "%q is not a valid date (want YYYY-MM-DD)", v.Date)
		}

	case model.QuestionTime:
		if v.Kind != model.KindTime {
			return answerErr(q, "expected a time answer, got %s", v.Kind)
		}
		if _, err := time.Parse(timeLayout, v.Time); err != nil {
			return answerErr(q, "%q is not a valid time (want HH:MM)", v.Time)
		}

	case model.QuestionMatrixGrid:
		if v.Kind != model.KindMatrix {
			return answerErr(q, "expected a matrix answer, got %s", v.Kind)
		}
		for row, col := range v.Matrix {
			if !slices.Contains(q.Rows, row) {
				return answerErr(q, "%q is not a row of this grid", row)
			}
			if !slices.Contains(q.Columns, col) {
				return answerErr(q, "%q is not a column of this grid", col)
			}
		}

	case model.QuestionFileUpload:
		if v.Kind != model.KindFile || v.File == nil {
			return answerErr(q, "expected a file answer, got %s", v.Kind)
		}
		if v.File.Size > int64(q.MaxFileSizeMB)*1_000_000 {
			return answerErr(q, "file is %d bytes, limit is %d MB", v.File.Size, q.MaxFileSizeMB)
		}
		if !fileTypeAccepted(q.AcceptedFileTypes, v.File.Name) {
			return answerErr(q, "file type of %q is not accepted", v.File.Name)
		}

	case model.QuestionSectionBreak:
		return answerErr(q, "section breaks take no answer")
	}

	return nil
}

// fileTypeAccepted matches a file name against the question's accepted
// patterns: ".ext" suffixes, "type/*" MIME prefixes, or exact MIME types.
func fileTypeAccepted(patterns []string, name string) bool {
	ext := strings.ToLower(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i:])
	}
	mt := mimeForExt(ext)
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "*" || p == "*/*":
			return true
		case strings.HasPrefix(p, "."):
			if p == ext {
				return true
			}
		case strings.HasSuffix(p, "/*"):
			if mt != "" && strings.HasPrefix(mt, strings.TrimSuffix(p, "*")) {
				return true
			}
		default:
			if mt == p {
				return true
			}
		}
	}
	return false
}

// mimeForExt resolves an extension to its media type, with any parameters
// (charset and the like) stripped.
func mimeForExt(ext string) string {
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
