package validation

import (
	"testing"

	"github.com/lshigami/Quokkas/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDefinition(t *testing.T) {
	tests := []struct {
		name   string
		q      model.Question
		fields []string
	}{
		{
			name: "valid choice question",
			q:    model.Question{ID: 1, Type: model.QuestionMultipleChoice, Title: "Pick one", Options: []string{"A", "B"}},
		},
		{
			name:   "missing title",
			q:      model.Question{ID: 2, Type: model.QuestionShortAnswer},
			fields: []string{"title"},
		},
		{
			name:   "choice without options",
			q:      model.Question{ID: 3, Type: model.QuestionDropdown, Title: "Pick"},
			fields: []string{"options"},
		},
		{
			name:   "empty option string",
			q:      model.Question{ID: 4, Type: model.QuestionCheckbox, Title: "Pick", Options: []string{"A", ""}},
			fields: []string{"options"},
		},
		{
			name:   "inverted scale bounds",
			q:      model.Question{ID: 5, Type: model.QuestionLinearScale, Title: "Rate", ScaleMin: 5, ScaleMax: 5},
			fields: []string{"scale"},
		},
		{
			name:   "matrix without rows or columns",
			q:      model.Question{ID: 6, Type: model.QuestionMatrixGrid, Title: "Grade"},
			fields: []string{"rows", "columns"},
		},
		{
			name:   "file upload without limits",
			q:      model.Question{ID: 7, Type: model.QuestionFileUpload, Title: "Attach"},
			fields: []string{"max_file_size_mb", "accepted_file_types"},
		},
		{
			name:   "unknown type",
			q:      model.Question{ID: 8, Type: "ranking", Title: "Rank"},
			fields: []string{"type"},
		},
		{
			name: "bad conditional operator",
			q: model.Question{
				ID: 9, Type: model.QuestionShortAnswer, Title: "Why?",
				Conditional: &model.ConditionalRule{QuestionID: 1, Operator: "greater-than", Value: "3"},
			},
			fields: []string{"conditional"},
		},
		{
			name: "conditional without reference",
			q: model.Question{
				ID: 10, Type: model.QuestionShortAnswer, Title: "Why?",
				Conditional: &model.ConditionalRule{Operator: "equals", Value: "Yes"},
			},
			fields: []string{"conditional"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckDefinition(tt.q)
			require.Len(t, errs, len(tt.fields))
			for i, field := range tt.fields {
				assert.Equal(t, field, errs[i].Field)
				assert.Equal(t, tt.q.ID, errs[i].QuestionID)
			}
		})
	}
}

func TestCheckPollDefinition(t *testing.T) {
	t.Run("no sections short-circuits", func(t *testing.T) {
		errs := CheckPollDefinition(model.Poll{Title: "Empty"})
		require.Len(t, errs, 1)
		assert.Equal(t, "sections", errs[0].Field)
	})

	t.Run("empty section and no answerable questions", func(t *testing.T) {
		p := model.Poll{
			Title: "Breaks only",
			Sections: []model.Section{
				{Title: "One", Questions: []model.Question{{ID: 1, Type: model.QuestionSectionBreak, Title: "---"}}},
				{Title: "Two"},
			},
		}
		errs := CheckPollDefinition(p)
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "questions", "a poll of section breaks has nothing to answer")
		assert.Contains(t, fields, "sections", "empty sections are flagged")
	})

	t.Run("conditional referencing unknown question", func(t *testing.T) {
		p := model.Poll{
			Title: "Dangling",
			Sections: []model.Section{{
				Title: "Main",
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionYesNo, Title: "Attending?"},
					{
						ID: 2, Type: model.QuestionShortAnswer, Title: "Why not?",
						Conditional: &model.ConditionalRule{QuestionID: 99, Operator: "equals", Value: "false"},
					},
				},
			}},
		}
		errs := CheckPollDefinition(p)
		require.Len(t, errs, 1)
		assert.Equal(t, "conditional", errs[0].Field)
		assert.Equal(t, uint(2), errs[0].QuestionID)
	})

	t.Run("sound poll passes", func(t *testing.T) {
		p := model.Poll{
			Title: "Feedback",
			Sections: []model.Section{{
				Title: "Main",
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionLinearScale, Title: "Rate us", ScaleMin: 1, ScaleMax: 5},
				},
			}},
		}
		assert.Empty(t, CheckPollDefinition(p))
	})
}
