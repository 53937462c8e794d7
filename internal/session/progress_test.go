package session

import (
	"testing"

	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressCountsOnlyVisibleQuestions(t *testing.T) {
	poll := &model.Poll{
		ID: 1, Status: model.StatusOpen,
		Sections: []model.Section{{
			Title: "Main",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionYesNo, Title: "Attending?"},
				{ID: 2, Type: model.QuestionShortAnswer, Title: "Why not?",
					Conditional: &model.ConditionalRule{QuestionID: 1, Operator: "equals", Value: "false"}},
				{ID: 3, Type: model.QuestionSectionBreak, Title: "---"},
				{ID: 4, Type: model.QuestionLinearScale, Title: "Rate", ScaleMin: 1, ScaleMax: 5},
			},
		}},
	}
	s := New(poll, policy.Identity{}, Config{}, noopSubmit)

	p := s.Progress()
	assert.Equal(t, 0, p.SectionIndex)
	assert.Equal(t, 1, p.SectionTotal)
	assert.Zero(t, p.OverallProgress, "nothing answered yet")

	// Two visible answerable questions; answering one is half way.
	require.NoError(t, s.Answer(4, model.ScaleAnswer(3)))
	p = s.Progress()
	assert.InDelta(t, 0.5, p.SectionProgress, 1e-9)
	assert.InDelta(t, 0.5, p.OverallProgress, 1e-9)

	// Answering "no" reveals the follow-up, growing the denominator.
	require.NoError(t, s.Answer(1, model.YesNoAnswer(false)))
	p = s.Progress()
	assert.InDelta(t, 2.0/3, p.OverallProgress, 1e-9)
}

func TestPresentedSectionShuffleIsStable(t *testing.T) {
	poll := &model.Poll{
		ID: 1, Status: model.StatusOpen, RandomizeQuestions: true,
		Sections: []model.Section{{
			Title: "Main",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionShortAnswer, Title: "One"},
				{ID: 2, Type: model.QuestionShortAnswer, Title: "Two"},
				{ID: 3, Type: model.QuestionShortAnswer, Title: "Three"},
				{ID: 4, Type: model.QuestionMultipleChoice, Title: "Pick",
					Options: []string{"A", "B", "C", "D"}, ShuffleChoices: true},
			},
		}},
	}
	s := New(poll, policy.Identity{}, Config{}, noopSubmit)

	first, ok := s.PresentedSection(0)
	require.True(t, ok)
	second, ok := s.PresentedSection(0)
	require.True(t, ok)
	assert.Equal(t, first, second, "the same session always sees the same order")

	ids := make([]uint, 0, len(first.Questions))
	for _, q := range first.Questions {
		ids = append(ids, q.ID)
	}
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, ids, "shuffling loses nothing")

	for _, q := range first.Questions {
		if q.ID == 4 {
			assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, q.Options)
		}
	}

	_, ok = s.PresentedSection(5)
	assert.False(t, ok)

	// The poll definition itself is never reordered.
	assert.Equal(t, uint(1), poll.Sections[0].Questions[0].ID)
}
