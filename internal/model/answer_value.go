package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AnswerKind discriminates the shape of an AnswerValue. Every question type
// produces exactly one kind, so validation and aggregation can switch on it
// instead of sniffing the runtime type of a loose value.
type AnswerKind string

const (
	KindText        AnswerKind = "text"
	KindChoice      AnswerKind = "choice"
	KindMultiChoice AnswerKind = "multi_choice"
	KindScale       AnswerKind = "scale"
	KindRating      AnswerKind = "rating"
	KindYesNo       AnswerKind = "yes_no"
	KindDate        AnswerKind = "date"
	KindTime        AnswerKind = "time"
	KindMatrix      AnswerKind = "matrix"
	KindFile        AnswerKind = "file"
)

// FileRef points at an already-uploaded file. The engine validates size and
// type before the upload happens; only the reference is stored with the answer.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// AnswerValue is the tagged union of every answer shape. Only the field
// matching Kind is meaningful; the rest stay zero and are omitted from JSON.
type AnswerValue struct {
	Kind        AnswerKind        `json:"kind"`
	Text        string            `json:"text,omitempty"`
	Choice      string            `json:"choice,omitempty"`
	MultiChoice []string          `json:"multi_choice,omitempty"`
	Scale       int               `json:"scale,omitempty"`
	Rating      int               `json:"rating,omitempty"`
	YesNo       bool              `json:"yes_no,omitempty"`
	Date        string            `json:"date,omitempty"`
	Time        string            `json:"time,omitempty"`
	Matrix      map[string]string `json:"matrix,omitempty"`
	File        *FileRef          `json:"file,omitempty"`
}

func TextAnswer(s string) AnswerValue     { return AnswerValue{Kind: KindText, Text: s} }
func ChoiceAnswer(opt string) AnswerValue { return AnswerValue{Kind: KindChoice, Choice: opt} }
func MultiChoiceAnswer(opts []string) AnswerValue {
	return AnswerValue{Kind: KindMultiChoice, MultiChoice: opts}
}
func ScaleAnswer(n int) AnswerValue   { return AnswerValue{Kind: KindScale, Scale: n} }
func RatingAnswer(n int) AnswerValue  { return AnswerValue{Kind: KindRating, Rating: n} }
func YesNoAnswer(b bool) AnswerValue  { return AnswerValue{Kind: KindYesNo, YesNo: b} }
func DateAnswer(s string) AnswerValue { return AnswerValue{Kind: KindDate, Date: s} }
func TimeAnswer(s string) AnswerValue { return AnswerValue{Kind: KindTime, Time: s} }
func MatrixAnswer(m map[string]string) AnswerValue {
	return AnswerValue{Kind: KindMatrix, Matrix: m}
}
func FileAnswer(name string, size int64, url string) AnswerValue {
	return AnswerValue{Kind: KindFile, File: &FileRef{Name: name, Size: size, URL: url}}
}

// IsZero reports whether the value carries no answer at all.
func (v AnswerValue) IsZero() bool {
	return v.Kind == ""
}

// Value serializes the union as jsonb for gorm.
func (v AnswerValue) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the jsonb column back into the union.
func (v *AnswerValue) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*v = AnswerValue{}
		return nil
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("unsupported answer value source type %T", src)
	}
}
